// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/store"
)

// ContentFilter narrows and pages a content listing.
type ContentFilter struct {
	ClientID int64
	Status   string
	Limit    int64
	Offset   int64
}

// ContentPage is one page of a content listing.
type ContentPage struct {
	Items []model.Content `json:"items"`
	Total int64           `json:"total"`
}

// ListContents returns a filtered page of contents plus the total match count.
func (s *Service) ListContents(ctx context.Context, f ContentFilter) (ContentPage, error) {
	if f.Status != "" && !model.ContentStatus(f.Status).IsValid() {
		return ContentPage{}, Validationf("unknown status %q", f.Status)
	}

	params := store.ListContentsParams{
		ClientID: sql.NullInt64{Int64: f.ClientID, Valid: f.ClientID > 0},
		Status:   f.Status,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}

	items, err := s.queries.ListContents(ctx, params)
	if err != nil {
		return ContentPage{}, err
	}
	total, err := s.queries.CountContents(ctx, params)
	if err != nil {
		return ContentPage{}, err
	}
	return ContentPage{Items: items, Total: total}, nil
}

// ListScheduled returns upcoming scheduled contents, soonest first.
func (s *Service) ListScheduled(ctx context.Context, limit int64) ([]model.Content, error) {
	return s.queries.ListUpcomingScheduledContents(ctx, limit)
}

// ListContentImages returns image metadata for one content record.
func (s *Service) ListContentImages(ctx context.Context, contentID int64) ([]model.ContentImage, error) {
	if _, err := s.GetContent(ctx, contentID); err != nil {
		return nil, err
	}
	return s.queries.ListContentImages(ctx, contentID)
}

// GetContentImage loads one stored image blob, scoped to its owner.
func (s *Service) GetContentImage(ctx context.Context, contentID, imageID int64) (model.ContentImage, error) {
	img, err := s.queries.GetContentImage(ctx, contentID, imageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ContentImage{}, &NotFoundError{Resource: "image", ID: imageID}
		}
		return model.ContentImage{}, err
	}
	return img, nil
}

// ActivityFilter narrows and pages the activity listing.
type ActivityFilter struct {
	ClientID int64
	Status   string
	Limit    int64
	Offset   int64
}

// ListActivity returns a page of audit entries, newest first.
func (s *Service) ListActivity(ctx context.Context, f ActivityFilter) ([]model.ActivityLog, error) {
	if f.Status != "" && f.Status != model.ActivityStatusSuccess && f.Status != model.ActivityStatusError {
		return nil, Validationf("unknown status %q", f.Status)
	}
	return s.queries.ListActivityLogs(ctx, store.ListActivityLogsParams{
		ClientID: sql.NullInt64{Int64: f.ClientID, Valid: f.ClientID > 0},
		Status:   f.Status,
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
}

// ActivitySummary aggregates audit entry counts per action.
func (s *Service) ActivitySummary(ctx context.Context) ([]model.ActivitySummary, error) {
	return s.queries.SummarizeActivity(ctx)
}

// PurgeActivity deletes audit entries older than the given number of days
// and returns how many were removed.
func (s *Service) PurgeActivity(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, Validationf("older_than_days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	return s.queries.PurgeActivityLogs(ctx, cutoff)
}
