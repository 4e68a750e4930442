package analyze

import (
	"math"
	"time"

	"github.com/tempus-cli/tempus/internal/config"
	"github.com/tempus-cli/tempus/internal/store"
)

// Summary holds the per-day time totals productivity is derived from.
//
// Long pauses (duration at or above the configured minimum) reduce the
// available work time like breaks do. Every pause additionally counts
// toward the short-pause adjustment, with recorded breaks assumed to
// already cover coinciding pause time so it is not subtracted twice.
type Summary struct {
	Gross      time.Duration
	BreakTotal time.Duration
	LongTotal  time.Duration
	PauseTotal time.Duration
	WorkTime   time.Duration
	NetWork    time.Duration
}

// Summarize computes the day's totals. For an open workday the span
// ends at now.
func Summarize(day store.Workday, breaks []store.Break, pauses []store.Pause, now time.Time, minPauseDuration time.Duration) Summary {
	end := day.End
	if day.Open() {
		end = now
	}

	var s Summary
	s.Gross = end.Sub(day.Start)
	if s.Gross < 0 {
		s.Gross = 0
	}

	for _, b := range breaks {
		s.BreakTotal += b.Duration
	}
	for _, p := range pauses {
		if p.Open() {
			continue
		}
		s.PauseTotal += p.Duration
		if p.Duration >= minPauseDuration {
			s.LongTotal += p.Duration
		}
	}

	s.WorkTime = s.Gross - s.BreakTotal - s.LongTotal

	adjusted := s.PauseTotal - s.BreakTotal
	if adjusted < 0 {
		adjusted = 0
	}
	s.NetWork = s.WorkTime - adjusted

	return s
}

// Productivity returns the percentage of available work time spent
// working, always within [0, 100]. A day with no available work time
// scores zero.
func (s Summary) Productivity() float64 {
	if s.WorkTime <= 0 {
		return 0
	}
	pct := float64(s.NetWork) / float64(s.WorkTime) * 100
	return math.Min(100, math.Max(0, pct))
}

// NeededBreakMinutes returns the additional whole minutes of break
// required to raise productivity to the target percentage, rounded up
// so the target is actually met. Returns 0 for targets outside (0, 100],
// for days with no net work time, and when no additional break helps.
func (s Summary) NeededBreakMinutes(target float64) int {
	if target <= 0 || target > 100 {
		return 0
	}
	if s.NetWork <= 0 {
		return 0
	}

	// Solve net / (gross - breaks') = target/100 for the new break total.
	required := time.Duration(float64(s.Gross) - float64(s.NetWork)*100/target)
	additional := required - s.BreakTotal
	if additional <= 0 {
		return 0
	}

	return int(math.Ceil(additional.Minutes()))
}

// ShouldSuggest reports whether enough of the configured workday has
// elapsed for break suggestions to be due.
func ShouldSuggest(day store.Workday, now time.Time, cfg config.ProductivityConfig) bool {
	elapsed := now.Sub(day.Start)
	due := time.Duration(cfg.MinWorkdayFractionBeforeSuggest * cfg.WorkdayHours * float64(time.Hour))
	return elapsed >= due
}

// Recommendation returns the break minutes needed to reach the minimum
// productivity threshold, and whether a suggestion should be made at
// all. No recommendation is produced while suggestions are not yet due,
// while productivity is acceptable, or when the needed duration falls
// outside the configured break-length bounds.
func Recommendation(s Summary, day store.Workday, now time.Time, cfg config.ProductivityConfig) (int, bool) {
	if !ShouldSuggest(day, now, cfg) {
		return 0, false
	}
	if s.Productivity() >= cfg.MinProductivityThreshold {
		return 0, false
	}

	minutes := s.NeededBreakMinutes(cfg.MinProductivityThreshold)
	if minutes < cfg.MinBreakDurationMinutes || minutes > cfg.MaxBreakDurationMinutes {
		return 0, false
	}
	return minutes, true
}
