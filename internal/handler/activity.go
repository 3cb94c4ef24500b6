// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/service"
)

// ActivityResponse represents one audit entry in API responses.
type ActivityResponse struct {
	ID        int64           `json:"id"`
	ClientID  *int64          `json:"client_id,omitempty"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func activityToResponse(l model.ActivityLog) ActivityResponse {
	resp := ActivityResponse{
		ID:        l.ID,
		Action:    l.Action,
		Details:   json.RawMessage(l.Details),
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
	}
	if l.ClientID.Valid {
		resp.ClientID = &l.ClientID.Int64
	}
	if !json.Valid(resp.Details) {
		resp.Details = json.RawMessage(`{}`)
	}
	return resp
}

func activityToResponses(logs []model.ActivityLog) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, activityToResponse(l))
	}
	return out
}

// ListActivity handles GET /api/activity.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.ListActivity(r.Context(), service.ActivityFilter{
		ClientID: queryInt64(r, "client_id", 0),
		Status:   r.URL.Query().Get("status"),
		Limit:    queryInt64(r, "limit", 50),
		Offset:   queryInt64(r, "offset", 0),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, activityToResponses(logs))
}

// ActivitySummary handles GET /api/activity/summary.
func (h *Handler) ActivitySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.ActivitySummary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if summary == nil {
		summary = []model.ActivitySummary{}
	}
	writeJSONSuccess(w, http.StatusOK, summary)
}

// PurgeActivity handles DELETE /api/activity?older_than_days=N.
func (h *Handler) PurgeActivity(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("older_than_days")
	days, err := strconv.Atoi(raw)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest,
			"older_than_days query parameter is required and must be an integer")
		return
	}

	deleted, err := h.svc.PurgeActivity(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"deleted": deleted})
}
