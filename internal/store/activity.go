// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/pressflow/internal/model"
)

// CreateActivityLogParams holds one audit entry.
type CreateActivityLogParams struct {
	ClientID  sql.NullInt64
	Action    string
	Details   string
	Status    string
	CreatedAt time.Time
}

// CreateActivityLog appends one entry to the audit trail.
func (q *Queries) CreateActivityLog(ctx context.Context, p CreateActivityLogParams) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Details == "" {
		p.Details = "{}"
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO activity_logs (client_id, action, details, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ClientID, p.Action, p.Details, p.Status, p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting activity log: %w", err)
	}
	return res.LastInsertId()
}

// ListActivityLogsParams filters and pages the activity listing.
type ListActivityLogsParams struct {
	ClientID sql.NullInt64
	Status   string
	Limit    int64
	Offset   int64
}

// ListActivityLogs returns audit entries matching the filters, newest first.
func (q *Queries) ListActivityLogs(ctx context.Context, p ListActivityLogsParams) ([]model.ActivityLog, error) {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, client_id, action, details, status, created_at
		FROM activity_logs
		WHERE (? = 0 OR client_id = ?)
			AND (? = '' OR status = ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		p.ClientID.Int64, p.ClientID.Int64, p.Status, p.Status, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Action, &l.Details,
			&l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListRecentActivity returns the newest audit entries across all clients.
func (q *Queries) ListRecentActivity(ctx context.Context, limit int64) ([]model.ActivityLog, error) {
	return q.ListActivityLogs(ctx, ListActivityLogsParams{Limit: limit})
}

// SummarizeActivity aggregates entry counts per action and outcome.
func (q *Queries) SummarizeActivity(ctx context.Context) ([]model.ActivitySummary, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT action,
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0)
		FROM activity_logs
		GROUP BY action
		ORDER BY action`)
	if err != nil {
		return nil, fmt.Errorf("summarizing activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.ActivitySummary
	for rows.Next() {
		var s model.ActivitySummary
		if err := rows.Scan(&s.Action, &s.SuccessCount, &s.ErrorCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// PurgeActivityLogs deletes entries older than the cutoff and reports
// how many rows were removed. This is the only mutation the audit trail
// ever sees.
func (q *Queries) PurgeActivityLogs(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM activity_logs WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purging activity logs: %w", err)
	}
	return res.RowsAffected()
}
