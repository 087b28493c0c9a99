package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires poll cycles on a fixed interval.
type Scheduler struct {
	cron   *cron.Cron
	poller *Poller
	log    *slog.Logger
}

// NewScheduler creates a Scheduler driving the poller at the given
// interval.
func NewScheduler(p *Poller, interval time.Duration, log *slog.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		poller: p,
		log:    log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runCycle); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins firing ticks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop stops firing ticks and returns a context that is done once any
// in-flight cycle has finished. Callers wait on it before tearing down
// the store and transport.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runCycle() {
	ctx := context.Background()
	if err := s.poller.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleRunning) {
		s.log.Error("poll cycle failed", "error", err)
	}
}
