// Package scheduler runs ingestion on a cron schedule. Runs are serialized:
// a tick that fires while the previous run is still going is skipped, because
// the ingestion pipeline is single-writer.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one ingestion run.
type RunFunc func(ctx context.Context)

// Scheduler triggers a RunFunc on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	running atomic.Bool
}

// New creates a Scheduler using standard 5-field cron expressions.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule registers the run function under the given cron expression.
// Returns an error for an invalid expression.
func (s *Scheduler) Schedule(ctx context.Context, spec string, run RunFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warn("previous ingestion run still active, skipping tick")
			return
		}
		defer s.running.Store(false)

		s.logger.Info("scheduled ingestion run starting")
		run(ctx)
	})
	return err
}

// Start begins firing scheduled runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops scheduling new runs and waits for an in-flight run triggered by
// cron to return from its job function.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
