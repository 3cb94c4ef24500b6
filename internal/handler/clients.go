// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/service"
)

// ClientResponse represents a client site in API responses. Stored
// secrets never leave the server; only their presence is reported.
type ClientResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	WordPressURL      string    `json:"wordpress_url"`
	WordPressUsername string    `json:"wordpress_username,omitempty"`
	HasCredentials    bool      `json:"has_wordpress_credentials"`
	HasGeminiKey      bool      `json:"has_gemini_key"`
	HasOpenAIKey      bool      `json:"has_openai_key"`
	SystemPrompt      string    `json:"system_prompt,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func clientToResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description.String,
		WordPressURL:      c.WordPressURL,
		WordPressUsername: c.WordPressUsername,
		HasCredentials:    c.HasWordPressCredentials(),
		HasGeminiKey:      c.GeminiAPIKey.Valid && c.GeminiAPIKey.String != "",
		HasOpenAIKey:      c.OpenAIAPIKey.Valid && c.OpenAIAPIKey.String != "",
		SystemPrompt:      c.SystemPrompt.String,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ClientRequest is the request body for creating or updating a client.
// Secret fields are plaintext on the wire and sealed before storage; on
// update, empty secret fields keep the stored values.
type ClientRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	WordPressURL      string `json:"wordpress_url"`
	WordPressUsername string `json:"wordpress_username,omitempty"`
	WordPressPassword string `json:"wordpress_password,omitempty"`
	GeminiAPIKey      string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey      string `json:"openai_api_key,omitempty"`
	SystemPrompt      string `json:"system_prompt,omitempty"`
	IsActive          *bool  `json:"is_active,omitempty"`
}

func (req *ClientRequest) toParams() service.ClientParams {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.ClientParams{
		Name:              req.Name,
		Description:       req.Description,
		WordPressURL:      req.WordPressURL,
		WordPressUsername: req.WordPressUsername,
		WordPressPassword: req.WordPressPassword,
		GeminiAPIKey:      req.GeminiAPIKey,
		OpenAIAPIKey:      req.OpenAIAPIKey,
		SystemPrompt:      req.SystemPrompt,
		IsActive:          active,
	}
}

// CreateClient handles POST /api/clients.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.CreateClient(r.Context(), req.toParams())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, clientToResponse(client))
}

// UpdateClient handles PUT /api/clients/{id}.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.UpdateClient(r.Context(), id, req.toParams())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, clientToResponse(client))
}

// GetClient handles GET /api/clients/{id}.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, clientToResponse(client))
}

// ListClients handles GET /api/clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, clientToResponse(c))
	}
	writeJSONSuccess(w, http.StatusOK, out)
}

// DeleteClient handles DELETE /api/clients/{id}. Contents and images of
// the client go with it.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.svc.InvalidateDashboardStats(r.Context())
	writeJSONSuccess(w, http.StatusOK, map[string]any{"deleted": id})
}

// TestClientConnection handles POST /api/clients/{id}/test-connection.
func (h *Handler) TestClientConnection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.svc.TestClientConnection(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, status)
}

// ClientStats handles GET /api/clients/{id}/stats.
func (h *Handler) ClientStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.svc.ClientStats(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, stats)
}
