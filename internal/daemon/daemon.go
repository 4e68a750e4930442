// Package daemon enforces the single-instance monitor lifecycle: one
// detached background process per host, tracked through a PID marker
// file and stopped gracefully before being replaced.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tempus-cli/tempus/internal/logging"
)

const (
	defaultStopRetries    = 25
	defaultStopRetryDelay = 200 * time.Millisecond
)

// ProcessController isolates the platform-specific process operations
// so the supervisor logic stays platform-agnostic. One implementation
// is selected per target via build tags.
type ProcessController interface {
	// Alive reports whether a process with the given pid exists.
	Alive(pid int) bool
	// Terminate requests a graceful shutdown.
	Terminate(pid int) error
	// Kill forcefully ends the process.
	Kill(pid int) error
	// StartDetached launches exe with args as a background process
	// independent of the current terminal and returns its pid.
	StartDetached(exe string, args ...string) (int, error)
}

// Runner is a long-lived activity raced against OS shutdown signals.
type Runner interface {
	Run(ctx context.Context) error
}

// Supervisor manages the monitor process through the PID marker in dir.
type Supervisor struct {
	dir  string
	proc ProcessController
	log  zerolog.Logger

	stopRetries    int
	stopRetryDelay time.Duration
}

func New(dir string) *Supervisor {
	return NewWithController(dir, newController())
}

// NewWithController injects a process controller. Used by tests.
func NewWithController(dir string, proc ProcessController) *Supervisor {
	return &Supervisor{
		dir:            dir,
		proc:           proc,
		log:            logging.Component("daemon"),
		stopRetries:    defaultStopRetries,
		stopRetryDelay: defaultStopRetryDelay,
	}
}

func (s *Supervisor) pidPath() string {
	return filepath.Join(s.dir, "tempus.pid")
}

func (s *Supervisor) writePID(pid int) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating marker directory: %w", err)
	}
	return os.WriteFile(s.pidPath(), []byte(strconv.Itoa(pid)), 0644)
}

func (s *Supervisor) readPID() (int, error) {
	data, err := os.ReadFile(s.pidPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid marker: %w", err)
	}
	return pid, nil
}

func (s *Supervisor) removePID() {
	os.Remove(s.pidPath())
}

// IsRunning reports whether the marker references a live process.
func (s *Supervisor) IsRunning() bool {
	pid, err := s.readPID()
	return err == nil && s.proc.Alive(pid)
}

// Stop ends the running monitor, if any. Idempotent: a missing marker
// and a stale marker both succeed, and the marker is removed
// unconditionally on the way out.
func (s *Supervisor) Stop() error {
	pid, err := s.readPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		s.removePID()
		return nil
	}
	defer s.removePID()

	if !s.proc.Alive(pid) {
		s.log.Debug().Int("pid", pid).Msg("stale pid marker")
		return nil
	}

	if err := s.proc.Terminate(pid); err != nil {
		s.log.Debug().Err(err).Int("pid", pid).Msg("graceful termination request failed")
	}
	for i := 0; i < s.stopRetries; i++ {
		if !s.proc.Alive(pid) {
			return nil
		}
		time.Sleep(s.stopRetryDelay)
	}

	s.log.Warn().Int("pid", pid).Msg("monitor did not stop in time, killing")
	if err := s.proc.Kill(pid); err != nil && s.proc.Alive(pid) {
		return fmt.Errorf("killing monitor process %d: %w", pid, err)
	}
	return nil
}

// Spawn detaches a new monitor process running the given command and
// records its pid. A previously running instance is always stopped
// first; replacement is sequential, never concurrent.
func (s *Supervisor) Spawn(args ...string) error {
	if err := s.Stop(); err != nil {
		s.log.Warn().Err(err).Msg("stopping previous instance")
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	pid, err := s.proc.StartDetached(exe, args...)
	if err != nil {
		return fmt.Errorf("detaching monitor process: %w", err)
	}

	if err := s.writePID(pid); err != nil {
		return fmt.Errorf("writing pid marker: %w", err)
	}

	s.log.Info().Int("pid", pid).Msg("monitor spawned")
	return nil
}

// Run is the entry point for the detached process. It writes the pid
// marker, races the runners against SIGINT/SIGTERM, and removes the
// marker however the race ends.
func (s *Supervisor) Run(ctx context.Context, runners ...Runner) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.writePID(os.Getpid()); err != nil {
		return fmt.Errorf("writing pid marker: %w", err)
	}
	defer s.removePID()

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		r := r
		g.Go(func() error { return r.Run(ctx) })
	}
	return g.Wait()
}
