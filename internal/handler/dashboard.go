// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/pressflow/internal/store"
)

// DashboardStatsResponse is the aggregate payload behind the dashboard
// landing page.
type DashboardStatsResponse struct {
	TotalContents  int64                      `json:"total_contents"`
	ByStatus       []store.StatusCount        `json:"by_status"`
	ByClient       []store.ClientContentCount `json:"by_client"`
	RecentActivity []ActivityResponse         `json:"recent_activity"`
	Upcoming       []ContentResponse          `json:"upcoming_scheduled"`
}

// DashboardStats handles GET /api/dashboard/stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := DashboardStatsResponse{
		TotalContents:  stats.TotalContents,
		ByStatus:       stats.ByStatus,
		ByClient:       stats.ByClient,
		RecentActivity: activityToResponses(stats.RecentActivity),
		Upcoming:       contentsToResponses(stats.Upcoming),
	}
	if resp.ByStatus == nil {
		resp.ByStatus = []store.StatusCount{}
	}
	if resp.ByClient == nil {
		resp.ByClient = []store.ClientContentCount{}
	}
	writeJSONSuccess(w, http.StatusOK, resp)
}
