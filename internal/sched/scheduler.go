// Package sched runs backups on a cron schedule.
package sched

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/ilee165/network-device-backup/internal/log"
)

// Scheduler triggers the given run function on a cron expression.
// Standard 5-field cron syntax; overlapping runs are prevented by the
// engine being invoked serially from a single cron entry.
type Scheduler struct {
	cron *cron.Cron
	expr string
	run  func(ctx context.Context)
}

// New creates a scheduler that invokes run per the cron expression.
func New(expr string, run func(ctx context.Context)) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		expr: expr,
		run:  run,
	}

	_, err := s.cron.AddFunc(expr, func() {
		log.Info("Scheduled backup triggered", "cron", expr)
		s.run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return s, nil
}

// Start begins scheduling. Returns immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("Scheduler started", "cron", s.expr)
}

// Stop halts scheduling and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}

// RunNow triggers one run immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.run(ctx)
}
