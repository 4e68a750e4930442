package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempus-cli/tempus/internal/store"
)

func newTestStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenAt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 12, hour, min, 0, 0, time.Local)
}

func TestWorkdayLifecycle(t *testing.T) {
	db := newTestStore(t)

	wd, err := db.FetchWorkday(at(9, 0))
	require.NoError(t, err)
	assert.Nil(t, wd)

	require.NoError(t, db.InsertWorkdayStart(at(9, 0)))

	wd, err = db.FetchWorkday(at(12, 0))
	require.NoError(t, err)
	require.NotNil(t, wd)
	assert.Equal(t, "2025-03-12", wd.Date)
	assert.True(t, wd.Start.Equal(at(9, 0)))
	assert.True(t, wd.Open())

	// A second insert for the same date is a no-op.
	require.NoError(t, db.InsertWorkdayStart(at(10, 30)))
	wd, err = db.FetchWorkday(at(12, 0))
	require.NoError(t, err)
	assert.True(t, wd.Start.Equal(at(9, 0)))

	require.NoError(t, db.SetWorkdayEnd(at(17, 0)))
	wd, err = db.FetchWorkday(at(12, 0))
	require.NoError(t, err)
	assert.False(t, wd.Open())
	assert.True(t, wd.End.Equal(at(17, 0)))
}

func TestPauseLifecycle(t *testing.T) {
	db := newTestStore(t)

	id, err := db.InsertPauseStart(at(10, 0))
	require.NoError(t, err)

	open, err := db.OpenPause()
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, id, open.ID)
	assert.True(t, open.Open())

	// Open pauses are invisible to FetchPauses.
	pauses, err := db.FetchPauses(at(10, 0), 0)
	require.NoError(t, err)
	assert.Empty(t, pauses)

	require.NoError(t, db.FinalizePause(id, at(10, 15)))

	open, err = db.OpenPause()
	require.NoError(t, err)
	assert.Nil(t, open)

	pauses, err = db.FetchPauses(at(10, 0), 0)
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	assert.Equal(t, 15*time.Minute, pauses[0].Duration)
	assert.True(t, pauses[0].End.Equal(at(10, 15)))
}

func TestFetchPauses_MinDurationFilter(t *testing.T) {
	db := newTestStore(t)

	short, err := db.InsertPauseStart(at(10, 0))
	require.NoError(t, err)
	require.NoError(t, db.FinalizePause(short, at(10, 5)))

	long, err := db.InsertPauseStart(at(12, 0))
	require.NoError(t, err)
	require.NoError(t, db.FinalizePause(long, at(12, 20)))

	all, err := db.FetchPauses(at(9, 0), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	longOnly, err := db.FetchPauses(at(9, 0), 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, longOnly, 1)
	assert.Equal(t, long, longOnly[0].ID)

	// A different day sees nothing.
	other, err := db.FetchPauses(at(9, 0).AddDate(0, 0, 1), 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBreaks(t *testing.T) {
	db := newTestStore(t)

	b := store.Break{Start: at(12, 0), End: at(12, 45), Reason: "lunch"}
	_, err := db.InsertBreak(&b)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, b.Duration)

	breaks, err := db.FetchBreaks(at(18, 0))
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	assert.Equal(t, "lunch", breaks[0].Reason)
	assert.Equal(t, 45*time.Minute, breaks[0].Duration)
	assert.Equal(t, "2025-03-12", breaks[0].Date)
}

func TestInsertBreak_RejectsNegativeDuration(t *testing.T) {
	db := newTestStore(t)

	b := store.Break{Start: at(12, 0), End: at(11, 0)}
	_, err := db.InsertBreak(&b)
	assert.Error(t, err)
}
