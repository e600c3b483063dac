// Package scheduler drives the periodic analysis runs with cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"budgetpulse/internal/log"
)

const jobTimeout = 5 * time.Minute

// Jobs is the set of periodic entry points the scheduler triggers.
type Jobs interface {
	RunAnalysis(ctx context.Context) error
	RunWeeklySummary(ctx context.Context) error
}

// Scheduler wraps a cron runner around the analysis jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger *log.Logger
}

// New registers the analysis and weekly-summary jobs under the given cron
// specs (standard 5-field format).
func New(jobs Jobs, analysisSpec, weeklySpec string, logger *log.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		jobs:   jobs,
		logger: logger.WithComponent(log.ComponentScheduler),
	}

	if _, err := s.cron.AddFunc(analysisSpec, func() {
		s.run("analysis", jobs.RunAnalysis)
	}); err != nil {
		return nil, fmt.Errorf("register analysis job: %w", err)
	}
	if _, err := s.cron.AddFunc(weeklySpec, func() {
		s.run("weekly_summary", jobs.RunWeeklySummary)
	}); err != nil {
		return nil, fmt.Errorf("register weekly summary job: %w", err)
	}

	return s, nil
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	s.logger.Info("job started", log.FieldOperation, name)
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", log.FieldOperation, name, log.FieldError, err)
		return
	}
	s.logger.Info("job finished", log.FieldOperation, name, log.FieldDuration, time.Since(started))
}

// Start begins triggering jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", log.FieldCount, len(s.cron.Entries()))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunNow triggers the analysis job immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.run("analysis", s.jobs.RunAnalysis)
}
