package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempus-cli/tempus/internal/store"
)

var day = time.Date(2025, 3, 12, 0, 0, 0, 0, time.Local)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func pause(start, end time.Time) store.Pause {
	return store.Pause{Start: start, End: end, Duration: end.Sub(start)}
}

func TestIntervals_NoPauses(t *testing.T) {
	intervals := Intervals(at(9, 0), at(17, 0), nil)

	require.Len(t, intervals, 1)
	assert.Equal(t, at(9, 0), intervals[0].Start)
	assert.Equal(t, at(17, 0), intervals[0].End)
	assert.Nil(t, intervals[0].PauseAfter)
}

func TestIntervals_SplitsAroundPauses(t *testing.T) {
	pauses := []store.Pause{
		pause(at(12, 0), at(12, 30)),
		pause(at(10, 0), at(10, 15)), // out of order on purpose
	}

	intervals := Intervals(at(9, 0), at(17, 0), pauses)

	require.Len(t, intervals, 3)
	assert.Equal(t, at(9, 0), intervals[0].Start)
	assert.Equal(t, at(10, 0), intervals[0].End)
	require.NotNil(t, intervals[0].PauseAfter)
	assert.Equal(t, at(10, 0), intervals[0].PauseAfter.Start)

	assert.Equal(t, at(10, 15), intervals[1].Start)
	assert.Equal(t, at(12, 0), intervals[1].End)

	assert.Equal(t, at(12, 30), intervals[2].Start)
	assert.Equal(t, at(17, 0), intervals[2].End)
	assert.Nil(t, intervals[2].PauseAfter)
}

func TestIntervals_DurationsSumToSpanMinusPauses(t *testing.T) {
	pauses := []store.Pause{
		pause(at(10, 0), at(10, 15)),
		pause(at(13, 0), at(13, 45)),
		pause(at(15, 30), at(15, 40)),
	}

	intervals := Intervals(at(9, 0), at(17, 0), pauses)

	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	assert.Equal(t, 8*time.Hour-70*time.Minute, total)
}

func TestIntervals_PauseAtBoundaryEmitsNoZeroLengthInterval(t *testing.T) {
	pauses := []store.Pause{
		pause(at(9, 0), at(9, 30)), // starts exactly at workday start
	}

	intervals := Intervals(at(9, 0), at(17, 0), pauses)

	require.Len(t, intervals, 1)
	assert.Equal(t, at(9, 30), intervals[0].Start)
	assert.Equal(t, at(17, 0), intervals[0].End)
}

func TestIntervals_IgnoresOpenPauses(t *testing.T) {
	pauses := []store.Pause{
		{Start: at(10, 0)}, // still open
	}

	intervals := Intervals(at(9, 0), at(17, 0), pauses)

	require.Len(t, intervals, 1)
	assert.Equal(t, 8*time.Hour, intervals[0].Duration())
}

func TestAnalyzeShortIntervals(t *testing.T) {
	// Intervals of 10, 45 and 5 minutes.
	pauses := []store.Pause{
		pause(at(9, 10), at(9, 15)),
		pause(at(10, 0), at(10, 5)),
	}
	intervals := Intervals(at(9, 0), at(10, 10), pauses)
	require.Len(t, intervals, 3)

	analysis := AnalyzeShortIntervals(intervals, 10*time.Minute)

	require.NotNil(t, analysis)
	assert.Equal(t, 1, analysis.Count)
	assert.Equal(t, 5*time.Minute, analysis.Total)
	require.Len(t, analysis.RemovablePauses, 1)
	assert.Equal(t, at(10, 0), analysis.RemovablePauses[0].Start)
}

func TestAnalyzeShortIntervals_NoneQualify(t *testing.T) {
	intervals := Intervals(at(9, 0), at(17, 0), nil)

	assert.Nil(t, AnalyzeShortIntervals(intervals, 10*time.Minute))
}

func TestAnalyzeShortIntervals_FirstIntervalHasNoMergeCandidate(t *testing.T) {
	pauses := []store.Pause{
		pause(at(9, 5), at(9, 30)),
	}
	intervals := Intervals(at(9, 0), at(17, 0), pauses)

	analysis := AnalyzeShortIntervals(intervals, 10*time.Minute)

	require.NotNil(t, analysis)
	assert.Equal(t, 1, analysis.Count)
	assert.Empty(t, analysis.RemovablePauses)
}
