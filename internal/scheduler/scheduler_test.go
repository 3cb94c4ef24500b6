// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakePublisherService struct {
	published int
	err       error
	calls     int
}

func (f *fakePublisherService) PublishDue(context.Context) (int, error) {
	f.calls++
	return f.published, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	svc := &fakePublisherService{published: 2}
	s := New(svc, testLogger())

	s.runOnce(context.Background())
	if svc.calls != 1 {
		t.Errorf("calls = %d", svc.calls)
	}
}

func TestRunOnceSwallowsError(t *testing.T) {
	svc := &fakePublisherService{err: errors.New("db locked")}
	s := New(svc, testLogger())

	// Must not panic or propagate.
	s.runOnce(context.Background())
	if svc.calls != 1 {
		t.Errorf("calls = %d", svc.calls)
	}
}

func TestStartStop(t *testing.T) {
	svc := &fakePublisherService{}
	s := New(svc, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("registered jobs = %d", got)
	}
	s.Stop()
}
