// Package sweeper removes expired uploads and result artifacts on a cron
// schedule.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/textmill/textmill/internal/storage"
)

// Sweeper periodically deletes session artifacts older than the configured
// lifetime so abandoned sessions do not fill the disk.
type Sweeper struct {
	store    *storage.Store
	schedule cron.Schedule
	maxAge   time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a sweeper from a standard five-field cron expression.
func New(store *storage.Store, scheduleExpr string, maxAge time.Duration) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(scheduleExpr)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		store:    store,
		schedule: schedule,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins the sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("Starting artifact sweeper",
		"max_age", s.maxAge,
	)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop gracefully stops the sweeper
func (s *Sweeper) Stop(ctx context.Context) {
	slog.Info("Stopping artifact sweeper")

	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Artifact sweeper stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for sweep to complete")
	}
}

// run is the main sweep loop
func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := time.Now()
		next := s.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			s.sweep()
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// sweep performs one cleanup pass
func (s *Sweeper) sweep() {
	start := time.Now()

	removed, err := s.store.SweepExpired(s.maxAge)
	if err != nil {
		slog.Error("Artifact sweep failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}

	slog.Info("Artifact sweep completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
