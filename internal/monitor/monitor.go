// Package monitor runs the pause state machine: it polls the activity
// sampler on a fixed cadence and converts inactivity periods into
// persisted pause records.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tempus-cli/tempus/internal/analyze"
	"github.com/tempus-cli/tempus/internal/config"
	"github.com/tempus-cli/tempus/internal/logging"
	"github.com/tempus-cli/tempus/internal/store"
)

// Store is the slice of the storage layer the monitor writes through.
type Store interface {
	InsertPauseStart(start time.Time) (int64, error)
	FinalizePause(id int64, end time.Time) error
	OpenPause() (*store.Pause, error)
	FetchWorkday(day time.Time) (*store.Workday, error)
	InsertWorkdayStart(start time.Time) error
	SetWorkdayEnd(end time.Time) error
	FetchPauses(day time.Time, minDuration time.Duration) ([]store.Pause, error)
	FetchBreaks(day time.Time) ([]store.Break, error)
}

// ActivitySource exposes the instant of the most recent input event.
type ActivitySource interface {
	LastActivity() time.Time
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Notify(title, body string) error
}

type state int

const (
	stateActive state = iota
	stateIdle
)

// Monitor owns the Active/Idle state machine. Not safe for concurrent
// use; exactly one poll loop drives it.
type Monitor struct {
	store    Store
	sampler  ActivitySource
	notifier Notifier
	cfg      config.MonitorConfig
	prod     config.ProductivityConfig
	log      zerolog.Logger

	now          func() time.Time
	suggestEvery time.Duration

	state       state
	openPauseID int64
	pauseStart  time.Time
	streakStart time.Time

	workdayDate   string
	workdayExists bool
	lastSuggest   time.Time
}

func New(st Store, sampler ActivitySource, notifier Notifier, cfg config.MonitorConfig, prod config.ProductivityConfig) *Monitor {
	return &Monitor{
		store:        st,
		sampler:      sampler,
		notifier:     notifier,
		cfg:          cfg,
		prod:         prod,
		log:          logging.Component("monitor"),
		now:          time.Now,
		suggestEvery: 30 * time.Minute,
	}
}

// Run drives the poll loop until ctx is cancelled. Storage failures are
// logged and retried on the next tick, never fatal.
func (m *Monitor) Run(ctx context.Context) error {
	m.streakStart = m.sampler.LastActivity()
	m.lastSuggest = m.now()
	m.adoptOpenPause()

	ticker := time.NewTicker(m.cfg.PollInterval())
	defer ticker.Stop()

	m.log.Info().
		Dur("poll_interval", m.cfg.PollInterval()).
		Dur("pause_threshold", m.cfg.PauseThreshold()).
		Msg("monitor started")

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case <-ticker.C:
			m.tick()
		}
	}
}

// adoptOpenPause takes ownership of a pause a previous run left open,
// so the first fresh activity finalizes it instead of leaking it.
func (m *Monitor) adoptOpenPause() {
	p, err := m.store.OpenPause()
	if err != nil {
		m.log.Warn().Err(err).Msg("checking for open pause")
		return
	}
	if p == nil {
		return
	}
	m.state = stateIdle
	m.openPauseID = p.ID
	m.pauseStart = p.Start
	m.log.Info().Int64("pause_id", p.ID).Time("start", p.Start).Msg("adopted open pause")
}

// tick performs one state evaluation and at most one storage write.
func (m *Monitor) tick() {
	now := m.now()
	last := m.sampler.LastActivity()

	switch m.state {
	case stateActive:
		if now.Sub(last) >= m.cfg.PauseThreshold() {
			m.toIdle(last)
			return
		}
		if m.maybeStartWorkday(now) {
			return
		}
		m.maybeSuggest(now)
	case stateIdle:
		if last.After(m.pauseStart) {
			m.toActive(now, last)
		}
	}
}

// toIdle opens a pause starting at the last activity instant, where the
// idle period actually began. On write failure the state is kept so the
// next tick retries the transition.
func (m *Monitor) toIdle(last time.Time) {
	id, err := m.store.InsertPauseStart(last)
	if err != nil {
		m.log.Warn().Err(err).Msg("opening pause")
		return
	}
	m.state = stateIdle
	m.openPauseID = id
	m.pauseStart = last
	m.log.Debug().Int64("pause_id", id).Time("start", last).Msg("pause opened")
}

func (m *Monitor) toActive(now, last time.Time) {
	if m.openPauseID != 0 {
		if err := m.store.FinalizePause(m.openPauseID, now); err != nil {
			m.log.Warn().Err(err).Int64("pause_id", m.openPauseID).Msg("closing pause")
			return
		}
		m.log.Debug().Int64("pause_id", m.openPauseID).Time("end", now).Msg("pause closed")
	}
	m.state = stateActive
	m.openPauseID = 0
	m.streakStart = last
}

// maybeStartWorkday creates the workday once sustained activity reaches
// the activity threshold on a day without one. Reports whether a
// storage write happened.
func (m *Monitor) maybeStartWorkday(now time.Time) bool {
	date := store.DateKey(now)
	if m.workdayDate != date {
		wd, err := m.store.FetchWorkday(now)
		if err != nil {
			m.log.Warn().Err(err).Msg("checking workday")
			return false
		}
		m.workdayDate = date
		m.workdayExists = wd != nil
	}
	if m.workdayExists {
		return false
	}
	if now.Sub(m.streakStart) < m.cfg.ActivityThreshold() {
		return false
	}

	if err := m.store.InsertWorkdayStart(m.streakStart); err != nil {
		m.log.Warn().Err(err).Msg("creating workday")
		return true
	}
	m.workdayExists = true
	m.log.Info().Time("start", m.streakStart).Msg("workday started")
	return true
}

// maybeSuggest evaluates break recommendations on a throttled cadence.
// Read-only; any failure is dropped until the next evaluation.
func (m *Monitor) maybeSuggest(now time.Time) {
	if !m.cfg.BreaksEnabled || m.notifier == nil || !m.workdayExists {
		return
	}
	if now.Sub(m.lastSuggest) < m.suggestEvery {
		return
	}
	m.lastSuggest = now

	wd, err := m.store.FetchWorkday(now)
	if err != nil || wd == nil || !wd.Open() {
		return
	}
	breaks, err := m.store.FetchBreaks(now)
	if err != nil {
		return
	}
	pauses, err := m.store.FetchPauses(now, 0)
	if err != nil {
		return
	}

	summary := analyze.Summarize(*wd, breaks, pauses, now, m.cfg.MinPauseDuration())
	minutes, ok := analyze.Recommendation(summary, *wd, now, m.prod)
	if !ok {
		return
	}

	body := fmt.Sprintf("Productivity is at %.0f%%. A %d minute break would help.",
		summary.Productivity(), minutes)
	if err := m.notifier.Notify("tempus", body); err != nil {
		m.log.Debug().Err(err).Msg("sending notification")
		return
	}
	m.log.Info().Int("minutes", minutes).Msg("break suggested")
}

// shutdown finalizes an open pause and closes today's workday before
// the process exits.
func (m *Monitor) shutdown() {
	now := m.now()

	if m.state == stateIdle && m.openPauseID != 0 {
		if err := m.store.FinalizePause(m.openPauseID, now); err != nil {
			m.log.Warn().Err(err).Int64("pause_id", m.openPauseID).Msg("closing pause at shutdown")
		}
	}

	wd, err := m.store.FetchWorkday(now)
	if err == nil && wd != nil && wd.Open() {
		if err := m.store.SetWorkdayEnd(now); err != nil {
			m.log.Warn().Err(err).Msg("closing workday at shutdown")
		}
	}

	m.log.Info().Msg("monitor stopped")
}
