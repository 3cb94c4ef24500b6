// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Activity outcomes.
const (
	ActivityStatusSuccess = "success"
	ActivityStatusError   = "error"
)

// Activity action tags. The column is free-form; these are the actions
// the pipeline itself emits.
const (
	ActionContentGenerated        = "content_generated"
	ActionContentScheduled        = "content_scheduled"
	ActionContentScheduleCanceled = "content_schedule_cancelled"
	ActionContentPublished        = "content_published"
	ActionContentPublishFailed    = "content_publish_failed"
	ActionContentDeleted          = "content_deleted"
	ActionClientCreated           = "client_created"
	ActionClientUpdated           = "client_updated"
	ActionClientDeleted           = "client_deleted"
	ActionSystemWarning           = "system_warning"
	ActionSystemError             = "system_error"
)

// ActivityLog is one append-only audit entry. Entries are never mutated
// and are pruned only by the explicit age-based purge.
type ActivityLog struct {
	ID        int64         `json:"id"`
	ClientID  sql.NullInt64 `json:"client_id,omitempty"`
	Action    string        `json:"action"`
	Details   string        `json:"details"` // JSON payload
	Status    string        `json:"status"`  // success|error
	CreatedAt time.Time     `json:"created_at"`
}

// ActivitySummary aggregates log counts per action and outcome.
type ActivitySummary struct {
	Action       string `json:"action"`
	SuccessCount int64  `json:"success_count"`
	ErrorCount   int64  `json:"error_count"`
}
