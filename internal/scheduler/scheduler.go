// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic job that publishes scheduled
// contents when their time arrives.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Publisher is the slice of the service layer the scheduler needs.
type Publisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// Scheduler drives the automatic publishing of due contents.
type Scheduler struct {
	svc    Publisher
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler instance.
func New(svc Publisher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		svc:    svc,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the publishing job, checking every minute.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		s.runOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// runOnce executes one publishing pass. Per-content failures are
// recorded by the service layer and do not abort the pass.
func (s *Scheduler) runOnce(ctx context.Context) {
	published, err := s.svc.PublishDue(ctx)
	if err != nil {
		s.logger.Error("processing due contents", "error", err)
		return
	}
	if published > 0 {
		s.logger.Info("published scheduled contents", "count", published)
	}
}
