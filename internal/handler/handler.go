// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the REST API handlers of the dashboard.
package handler

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pressflow/internal/service"
)

// Handler carries the dependencies shared by all API endpoints.
type Handler struct {
	svc       *service.Service
	db        *sql.DB
	logger    *slog.Logger
	startTime time.Time
}

// New creates the API handler set.
func New(svc *service.Service, db *sql.DB, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:       svc,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Routes mounts every API endpoint on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/healthz/ready", h.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Put("/", h.UpdateClient)
				r.Delete("/", h.DeleteClient)
				r.Post("/test-connection", h.TestClientConnection)
				r.Get("/stats", h.ClientStats)
			})
		})

		r.Route("/contents", func(r chi.Router) {
			r.Get("/", h.ListContents)
			r.Post("/generate", h.GenerateContent)
			r.Get("/scheduled", h.ListScheduled)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetContent)
				r.Delete("/", h.DeleteContent)
				r.Post("/schedule", h.ScheduleContent)
				r.Post("/cancel-schedule", h.CancelSchedule)
				r.Post("/publish", h.PublishContent)
				r.Get("/download", h.DownloadContent)
				r.Get("/images", h.ListContentImages)
				r.Get("/images/{imageID}", h.GetContentImage)
			})
		})

		r.Route("/activity-logs", func(r chi.Router) {
			r.Get("/", h.ListActivity)
			r.Get("/summary", h.ActivitySummary)
			r.Delete("/", h.PurgeActivity)
		})

		r.Get("/dashboard/stats", h.DashboardStats)
	})
}
