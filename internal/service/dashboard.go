// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/store"
)

const dashboardStatsCacheKey = "dashboard:stats"

// DashboardStats is the aggregate view behind the dashboard landing page.
type DashboardStats struct {
	TotalContents  int64                      `json:"total_contents"`
	ByStatus       []store.StatusCount        `json:"by_status"`
	ByClient       []store.ClientContentCount `json:"by_client"`
	RecentActivity []model.ActivityLog        `json:"recent_activity"`
	Upcoming       []model.Content            `json:"upcoming_scheduled"`
}

// DashboardStats computes the dashboard aggregates, served through the
// cache layer when one is configured.
func (s *Service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	if s.statsCache != nil {
		return s.statsCache.GetOrSet(ctx, dashboardStatsCacheKey, func() (*DashboardStats, error) {
			return s.computeDashboardStats(ctx)
		})
	}
	return s.computeDashboardStats(ctx)
}

// InvalidateDashboardStats drops the cached aggregate after a write.
func (s *Service) InvalidateDashboardStats(ctx context.Context) {
	if s.statsCache != nil {
		_ = s.statsCache.Delete(ctx, dashboardStatsCacheKey)
	}
}

func (s *Service) computeDashboardStats(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.queries.CountContentsGroupedByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byClient, err := s.queries.CountContentsGroupedByClient(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.queries.ListRecentActivity(ctx, 10)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.queries.ListUpcomingScheduledContents(ctx, 10)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		ByStatus:       byStatus,
		ByClient:       byClient,
		RecentActivity: recent,
		Upcoming:       upcoming,
	}
	for _, sc := range byStatus {
		stats.TotalContents += sc.Count
	}
	return stats, nil
}
