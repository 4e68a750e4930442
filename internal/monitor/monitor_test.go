package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempus-cli/tempus/internal/config"
	"github.com/tempus-cli/tempus/internal/store"
)

type fakeStore struct {
	pauses      []store.Pause
	workdays    map[string]*store.Workday
	breaks      []store.Break
	nextID      int64
	failInserts bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{workdays: map[string]*store.Workday{}}
}

func (f *fakeStore) InsertPauseStart(start time.Time) (int64, error) {
	if f.failInserts {
		return 0, fmt.Errorf("disk full")
	}
	f.nextID++
	f.pauses = append(f.pauses, store.Pause{ID: f.nextID, Start: start})
	return f.nextID, nil
}

func (f *fakeStore) FinalizePause(id int64, end time.Time) error {
	if f.failInserts {
		return fmt.Errorf("disk full")
	}
	for i := range f.pauses {
		if f.pauses[i].ID == id {
			f.pauses[i].End = end
			f.pauses[i].Duration = end.Sub(f.pauses[i].Start)
			return nil
		}
	}
	return fmt.Errorf("no pause %d", id)
}

func (f *fakeStore) OpenPause() (*store.Pause, error) {
	for i := len(f.pauses) - 1; i >= 0; i-- {
		if f.pauses[i].Open() {
			p := f.pauses[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FetchWorkday(day time.Time) (*store.Workday, error) {
	return f.workdays[store.DateKey(day)], nil
}

func (f *fakeStore) InsertWorkdayStart(start time.Time) error {
	if f.failInserts {
		return fmt.Errorf("disk full")
	}
	key := store.DateKey(start)
	if _, ok := f.workdays[key]; !ok {
		f.workdays[key] = &store.Workday{Date: key, Start: start}
	}
	return nil
}

func (f *fakeStore) SetWorkdayEnd(end time.Time) error {
	if wd, ok := f.workdays[store.DateKey(end)]; ok {
		wd.End = end
	}
	return nil
}

func (f *fakeStore) FetchPauses(day time.Time, minDuration time.Duration) ([]store.Pause, error) {
	var out []store.Pause
	for _, p := range f.pauses {
		if !p.Open() && p.Duration >= minDuration {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) FetchBreaks(day time.Time) ([]store.Break, error) {
	return f.breaks, nil
}

type fakeSampler struct {
	last time.Time
}

func (f *fakeSampler) LastActivity() time.Time { return f.last }

type fakeNotifier struct {
	bodies []string
}

func (f *fakeNotifier) Notify(title, body string) error {
	f.bodies = append(f.bodies, body)
	return nil
}

func testConfig() config.MonitorConfig {
	return config.MonitorConfig{
		BreaksEnabled:            true,
		PauseThresholdSeconds:    300,
		PollIntervalMs:           10,
		ActivityThresholdSeconds: 60,
		MinPauseDurationMinutes:  10,
	}
}

// harness wires a monitor to fakes with a controllable clock.
type harness struct {
	m       *Monitor
	st      *fakeStore
	sampler *fakeSampler
	clock   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		st:      newFakeStore(),
		sampler: &fakeSampler{},
		clock:   time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local),
	}
	h.sampler.last = h.clock
	h.m = New(h.st, h.sampler, &fakeNotifier{}, testConfig(), config.DefaultConfig().Productivity)
	h.m.now = func() time.Time { return h.clock }
	h.m.streakStart = h.clock
	h.m.lastSuggest = h.clock
	return h
}

// advance moves the clock and runs one tick per poll-sized step.
func (h *harness) advance(d time.Duration) {
	step := h.m.cfg.PollInterval()
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		h.clock = h.clock.Add(step)
		h.m.tick()
	}
}

func (h *harness) act() {
	h.sampler.last = h.clock
}

func TestMonitor_OpensPauseAfterInactivity(t *testing.T) {
	h := newHarness(t)

	h.advance(6 * time.Minute)

	require.Len(t, h.st.pauses, 1)
	p := h.st.pauses[0]
	assert.True(t, p.Open())
	// The pause starts when activity stopped, not when it was detected.
	assert.Equal(t, h.sampler.last, p.Start)
	assert.Equal(t, stateIdle, h.m.state)
}

func TestMonitor_FinalizesPauseOnFreshActivity(t *testing.T) {
	h := newHarness(t)

	h.advance(6 * time.Minute)
	require.Len(t, h.st.pauses, 1)

	h.act()
	h.advance(h.m.cfg.PollInterval())

	p := h.st.pauses[0]
	assert.False(t, p.Open())
	assert.Equal(t, p.End.Sub(p.Start), p.Duration)
	assert.Equal(t, stateActive, h.m.state)
}

func TestMonitor_StaysActiveWithRegularActivity(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 100; i++ {
		h.advance(time.Minute)
		h.act()
	}

	assert.Empty(t, h.st.pauses)
	assert.Equal(t, stateActive, h.m.state)
}

func TestMonitor_WriteFailureRetriesNextTick(t *testing.T) {
	h := newHarness(t)
	h.st.failInserts = true

	h.advance(6 * time.Minute)
	assert.Equal(t, stateActive, h.m.state)
	assert.Empty(t, h.st.pauses)

	// Once storage recovers the pending transition goes through.
	h.st.failInserts = false
	h.advance(h.m.cfg.PollInterval())
	require.Len(t, h.st.pauses, 1)
	assert.Equal(t, stateIdle, h.m.state)
}

func TestMonitor_CreatesWorkdayAfterSustainedActivity(t *testing.T) {
	h := newHarness(t)
	streakStart := h.clock

	h.advance(30 * time.Second)
	h.act()
	assert.Empty(t, h.st.workdays)

	h.advance(time.Minute)
	h.act()

	wd := h.st.workdays[store.DateKey(h.clock)]
	require.NotNil(t, wd)
	assert.Equal(t, streakStart, wd.Start)
}

func TestMonitor_DoesNotDuplicateWorkday(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.st.InsertWorkdayStart(h.clock.Add(-2*time.Hour)))

	for i := 0; i < 20; i++ {
		h.advance(time.Minute)
		h.act()
	}

	assert.Len(t, h.st.workdays, 1)
}

func TestMonitor_AdoptsStaleOpenPause(t *testing.T) {
	h := newHarness(t)
	id, err := h.st.InsertPauseStart(h.clock.Add(-time.Hour))
	require.NoError(t, err)

	h.m.adoptOpenPause()
	assert.Equal(t, stateIdle, h.m.state)
	assert.Equal(t, id, h.m.openPauseID)

	h.act()
	h.advance(h.m.cfg.PollInterval())

	assert.False(t, h.st.pauses[0].Open())
	assert.Equal(t, stateActive, h.m.state)
}

func TestMonitor_SuggestsBreakWhenProductivityDrops(t *testing.T) {
	h := newHarness(t)
	notifier := &fakeNotifier{}
	h.m.notifier = notifier
	h.m.suggestEvery = time.Minute

	// A workday open since 09:00 with heavy short-pause load: twenty
	// 9 minute pauses, each below the 10 minute long-pause boundary.
	day := h.clock
	require.NoError(t, h.st.InsertWorkdayStart(day))
	for i := 0; i < 20; i++ {
		start := day.Add(time.Duration(i) * 15 * time.Minute)
		id, err := h.st.InsertPauseStart(start)
		require.NoError(t, err)
		require.NoError(t, h.st.FinalizePause(id, start.Add(9*time.Minute)))
	}

	h.clock = day.Add(7 * time.Hour)
	h.act()
	h.m.workdayDate = store.DateKey(h.clock)
	h.m.workdayExists = true
	h.m.lastSuggest = day

	h.m.tick()

	require.NotEmpty(t, notifier.bodies)
	assert.Contains(t, notifier.bodies[0], "break")
}

func TestMonitor_ShutdownClosesPauseAndWorkday(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.st.InsertWorkdayStart(h.clock))
	h.m.workdayDate = store.DateKey(h.clock)
	h.m.workdayExists = true

	h.advance(6 * time.Minute)
	require.Len(t, h.st.pauses, 1)
	require.True(t, h.st.pauses[0].Open())

	h.m.shutdown()

	assert.False(t, h.st.pauses[0].Open())
	wd := h.st.workdays[store.DateKey(h.clock)]
	require.NotNil(t, wd)
	assert.False(t, wd.Open())
}

func TestMonitor_RunStopsWithinOneTick(t *testing.T) {
	h := newHarness(t)
	h.m.now = time.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}
