// Package report renders read-only derived views of a day: work
// intervals, productivity, and break recommendations.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	naturaldate "github.com/tj/go-naturaldate"

	"github.com/tempus-cli/tempus/internal/analyze"
	"github.com/tempus-cli/tempus/internal/config"
	"github.com/tempus-cli/tempus/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// ParseDay resolves a natural-language day argument ("yesterday",
// "3 days ago", "2025-03-12") to a calendar day. Empty means today.
func ParseDay(arg string) (time.Time, error) {
	if arg == "" {
		return time.Now(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", arg, time.Local); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(arg, time.Now(), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", arg, err)
	}
	return t, nil
}

// DayReport bundles the derived views for one day.
type DayReport struct {
	Day       store.Workday
	Intervals []analyze.WorkInterval
	Short     *analyze.ShortIntervalAnalysis
	Summary   analyze.Summary

	RecommendedBreak int
	HasRecommended   bool

	now time.Time
}

// shortIntervalThreshold flags work intervals too brief to get
// anything done in.
const shortIntervalThreshold = 10 * time.Minute

// BuildDay derives the full report from a day's persisted rows.
func BuildDay(day store.Workday, breaks []store.Break, pauses []store.Pause, now time.Time, mcfg config.MonitorConfig, pcfg config.ProductivityConfig) DayReport {
	end := day.End
	if day.Open() {
		end = now
	}

	r := DayReport{
		Day:       day,
		Intervals: analyze.Intervals(day.Start, end, pauses),
		Summary:   analyze.Summarize(day, breaks, pauses, now, mcfg.MinPauseDuration()),
		now:       now,
	}
	r.Short = analyze.AnalyzeShortIntervals(r.Intervals, shortIntervalThreshold)
	r.RecommendedBreak, r.HasRecommended = analyze.Recommendation(r.Summary, day, now, pcfg)
	return r
}

func (r DayReport) Render() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Report for "+r.Day.Date) + "\n")

	end := r.Day.End
	suffix := ""
	if r.Day.Open() {
		end = r.now
		suffix = dimStyle.Render(" (still open)")
	}
	fmt.Fprintf(&b, "Workday %s–%s%s\n\n", clock(r.Day.Start), clock(end), suffix)

	b.WriteString("Work intervals:\n")
	for _, iv := range r.Intervals {
		line := fmt.Sprintf("  %s–%s  %s", clock(iv.Start), clock(iv.End), minutes(iv.Duration()))
		if iv.PauseAfter != nil {
			line += dimStyle.Render(fmt.Sprintf("  then %s pause", minutes(iv.PauseAfter.Duration)))
		}
		b.WriteString(line + "\n")
	}

	if r.Short != nil {
		fmt.Fprintf(&b, "\n%s\n", warningStyle.Render(
			fmt.Sprintf("%d short interval(s) totaling %s", r.Short.Count, minutes(r.Short.Total))))
		for _, p := range r.Short.RemovablePauses {
			fmt.Fprintf(&b, "  removing the %s pause at %s would merge intervals\n",
				minutes(p.Duration), clock(p.Start))
		}
	}

	pct := r.Summary.Productivity()
	style := successStyle
	if pct < 50 {
		style = errorStyle
	} else if pct < 75 {
		style = warningStyle
	}
	fmt.Fprintf(&b, "\nWork time %s, net %s, breaks %s, pauses %s\n",
		minutes(r.Summary.WorkTime), minutes(r.Summary.NetWork),
		minutes(r.Summary.BreakTotal), minutes(r.Summary.PauseTotal))
	fmt.Fprintf(&b, "Productivity: %s\n", style.Render(fmt.Sprintf("%.1f%%", pct)))

	if r.HasRecommended {
		fmt.Fprintf(&b, "%s\n", warningStyle.Render(
			fmt.Sprintf("Suggestion: take a %d minute break", r.RecommendedBreak)))
	}

	return b.String()
}

// RenderStatus summarizes monitor liveness and today's tallies.
func RenderStatus(running bool, day *store.Workday, pauses []store.Pause, breaks []store.Break, now time.Time) string {
	var b strings.Builder

	if running {
		b.WriteString(successStyle.Render("monitor running") + "\n")
	} else {
		b.WriteString(dimStyle.Render("monitor not running") + "\n")
	}

	if day == nil {
		b.WriteString("No workday recorded today.\n")
		return b.String()
	}

	end := day.End
	if day.Open() {
		end = now
	}
	fmt.Fprintf(&b, "Workday started %s, %s elapsed\n", clock(day.Start), minutes(end.Sub(day.Start)))

	var pauseTotal time.Duration
	for _, p := range pauses {
		pauseTotal += p.Duration
	}
	var breakTotal time.Duration
	for _, br := range breaks {
		breakTotal += br.Duration
	}
	fmt.Fprintf(&b, "%d pause(s) totaling %s, %d break(s) totaling %s\n",
		len(pauses), minutes(pauseTotal), len(breaks), minutes(breakTotal))

	return b.String()
}

func clock(t time.Time) string {
	return t.Local().Format("15:04")
}

func minutes(d time.Duration) string {
	m := int(d.Round(time.Minute).Minutes())
	if m >= 60 {
		return fmt.Sprintf("%dh %dmin", m/60, m%60)
	}
	return fmt.Sprintf("%dmin", m)
}
