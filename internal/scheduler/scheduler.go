// Package scheduler runs the periodic account maintenance jobs: expiring
// overdue cards and resetting the daily/monthly spend counters. Jobs are
// idempotent; a failed run logs and is retried at the next firing.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job cadences. The daily reset fires before business hours.
const (
	expireSpec       = "30 0 * * *"
	dailyResetSpec   = "0 5 * * *"
	monthlyResetSpec = "0 0 1 * *"
)

// Store is the persistence surface the maintenance jobs need. Each bulk
// update is atomic per row only; no cross-account atomicity is assumed.
type Store interface {
	ExpireOverdueCards(ctx context.Context, before time.Time) (int64, error)
	ResetDailySpending(ctx context.Context) (int64, error)
	ResetMonthlySpending(ctx context.Context) (int64, error)
}

// Clock is the time source, injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Scheduler owns the cron runner and the three maintenance jobs.
type Scheduler struct {
	store Store
	log   *logrus.Logger
	clock Clock
	cron  *cron.Cron
}

// New creates a scheduler. A nil clock means wall-clock time.
func New(store Store, log *logrus.Logger, clock Clock) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	return &Scheduler{
		store: store,
		log:   log,
		clock: clock,
		cron:  cron.New(),
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{expireSpec, "expire overdue cards", s.RunExpireOverdueCards},
		{dailyResetSpec, "reset daily spending", s.RunResetDailySpending},
		{monthlyResetSpec, "reset monthly spending", s.RunResetMonthlySpending},
	}
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := job.run(context.Background()); err != nil {
				s.log.Errorf("Scheduled job %q failed: %v", job.name, err)
			}
		}); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.log.Info("Maintenance scheduler started")
	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunExpireOverdueCards sets status EXPIRED on every ACTIVE or BLOCKED card
// whose expiry date is strictly before the current date.
func (s *Scheduler) RunExpireOverdueCards(ctx context.Context) error {
	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.store.ExpireOverdueCards(ctx, today)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Infof("Expired %d overdue cards", n)
	}
	return nil
}

// RunResetDailySpending zeroes the daily spend counter on every card with a
// non-zero value.
func (s *Scheduler) RunResetDailySpending(ctx context.Context) error {
	n, err := s.store.ResetDailySpending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Infof("Reset daily spending on %d cards", n)
	}
	return nil
}

// RunResetMonthlySpending zeroes the monthly spend counter on every card
// with a non-zero value.
func (s *Scheduler) RunResetMonthlySpending(ctx context.Context) error {
	n, err := s.store.ResetMonthlySpending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Infof("Reset monthly spending on %d cards", n)
	}
	return nil
}
