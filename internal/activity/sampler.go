// Package activity tracks the instant of the most recent user input
// event, independent of whoever consumes it.
package activity

import (
	"context"
	"sync"
	"time"
)

// Source is a platform input-event capability. Implementations push an
// instant into events for every detected keyboard, pointer or wheel
// event until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, events chan<- time.Time) error
}

// Sampler records the last observed activity instant. It is safe for
// concurrent use; the poll loop reads while the source goroutine writes.
type Sampler struct {
	source Source

	mu   sync.Mutex
	last time.Time
}

// NewSampler creates a sampler over the given source. Until the first
// event arrives, LastActivity reports the sampler's creation instant.
func NewSampler(source Source) *Sampler {
	return &Sampler{
		source: source,
		last:   time.Now(),
	}
}

// LastActivity returns the instant of the most recent detected input
// event. Never errors; with no activity yet the creation instant is the
// sentinel.
func (s *Sampler) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Sampler) mark(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.last) {
		s.last = t
	}
}

// Run consumes the source until ctx is cancelled or the source fails.
// It must never be blocked by downstream consumers, so it runs on its
// own goroutine for the lifetime of the monitor process.
func (s *Sampler) Run(ctx context.Context) error {
	events := make(chan time.Time, 64)
	errc := make(chan error, 1)

	go func() {
		errc <- s.source.Run(ctx, events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-events:
			s.mark(t)
		case err := <-errc:
			return err
		}
	}
}
