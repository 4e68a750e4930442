// Package analyze derives work intervals and productivity figures from
// a day's persisted workday, pause, and break rows. Everything here is
// pure: inputs are fetched by the caller, nothing is mutated, and no
// function returns an error.
package analyze

import (
	"sort"
	"time"

	"github.com/tempus-cli/tempus/internal/store"
)

// WorkInterval is a continuous span of work time between two pauses or
// workday boundaries. Never persisted; regenerated on every call.
type WorkInterval struct {
	Start time.Time
	End   time.Time

	// PauseAfter is the pause that terminated this interval, nil for
	// the final interval of the day.
	PauseAfter *store.Pause
}

func (w WorkInterval) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Intervals splits the workday span [start, end) into continuous work
// intervals separated by the finalized pauses. Zero-length intervals
// are never emitted; with no pauses the result is a single interval
// spanning the whole day.
func Intervals(start, end time.Time, pauses []store.Pause) []WorkInterval {
	closed := make([]store.Pause, 0, len(pauses))
	for _, p := range pauses {
		if !p.Open() {
			closed = append(closed, p)
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].Start.Before(closed[j].Start)
	})

	var intervals []WorkInterval
	cursor := start
	for i := range closed {
		p := closed[i]
		if !p.Start.Before(end) {
			break
		}
		if cursor.Before(p.Start) {
			intervals = append(intervals, WorkInterval{
				Start:      cursor,
				End:        p.Start,
				PauseAfter: &closed[i],
			})
		}
		if p.End.After(cursor) {
			cursor = p.End
		}
	}

	if cursor.Before(end) {
		intervals = append(intervals, WorkInterval{Start: cursor, End: end})
	}

	return intervals
}

// ShortIntervalAnalysis reports work intervals below a duration
// threshold and the pauses whose removal would merge them with their
// predecessors.
type ShortIntervalAnalysis struct {
	Count           int
	Total           time.Duration
	RemovablePauses []store.Pause
}

// AnalyzeShortIntervals selects every interval shorter than minDuration.
// For each short interval that is not the first, the pause terminating
// the preceding interval is flagged as a merge candidate. Returns nil
// when no interval qualifies.
func AnalyzeShortIntervals(intervals []WorkInterval, minDuration time.Duration) *ShortIntervalAnalysis {
	var analysis ShortIntervalAnalysis
	for i, iv := range intervals {
		if iv.Duration() >= minDuration {
			continue
		}
		analysis.Count++
		analysis.Total += iv.Duration()
		if i > 0 && intervals[i-1].PauseAfter != nil {
			analysis.RemovablePauses = append(analysis.RemovablePauses, *intervals[i-1].PauseAfter)
		}
	}
	if analysis.Count == 0 {
		return nil
	}
	return &analysis
}
