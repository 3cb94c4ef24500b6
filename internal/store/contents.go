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

const contentColumns = `id, client_id, title, body, excerpt, status, keywords,
	scheduled_at, published_at, wordpress_post_id, thumbnail_image_id,
	error_message, created_at, updated_at`

// CreateContentParams holds the fields of a freshly generated draft.
type CreateContentParams struct {
	ClientID int64
	Title    string
	Body     string
	Excerpt  string
	Keywords string
}

// CreateContent inserts a new content record in draft status.
func (q *Queries) CreateContent(ctx context.Context, p CreateContentParams) (model.Content, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO contents (client_id, title, body, excerpt, status, keywords,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, 'draft', ?, ?, ?)`,
		p.ClientID, p.Title, p.Body, p.Excerpt, p.Keywords, now, now)
	if err != nil {
		return model.Content{}, fmt.Errorf("inserting content: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Content{}, fmt.Errorf("content insert id: %w", err)
	}
	return q.GetContent(ctx, id)
}

// GetContent fetches one content record by id.
func (q *Queries) GetContent(ctx context.Context, id int64) (model.Content, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)
	return scanContent(row)
}

// ListContentsParams filters and pages the content listing.
type ListContentsParams struct {
	ClientID sql.NullInt64
	Status   string
	Limit    int64
	Offset   int64
}

// ListContents returns content records matching the filters, newest first.
func (q *Queries) ListContents(ctx context.Context, p ListContentsParams) ([]model.Content, error) {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM contents
		WHERE (? = 0 OR client_id = ?)
			AND (? = '' OR status = ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		p.ClientID.Int64, p.ClientID.Int64, p.Status, p.Status, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contents []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// CountContents counts content records matching the filters.
func (q *Queries) CountContents(ctx context.Context, p ListContentsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contents
		WHERE (? = 0 OR client_id = ?)
			AND (? = '' OR status = ?)`,
		p.ClientID.Int64, p.ClientID.Int64, p.Status, p.Status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting contents: %w", err)
	}
	return count, nil
}

// UpdateContentBody rewrites the HTML body and thumbnail reference after
// image materialization.
func (q *Queries) UpdateContentBody(ctx context.Context, id int64, body string, thumbnailImageID sql.NullInt64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE contents SET body = ?, thumbnail_image_id = ?, updated_at = ?
		WHERE id = ?`,
		body, thumbnailImageID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("updating content %d body: %w", id, err)
	}
	return nil
}

// MarkContentScheduled moves a content record into scheduled status.
func (q *Queries) MarkContentScheduled(ctx context.Context, id int64, scheduledAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE contents SET status = 'scheduled', scheduled_at = ?, updated_at = ?
		WHERE id = ?`,
		scheduledAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("scheduling content %d: %w", id, err)
	}
	return nil
}

// MarkContentDraft reverts a content record to draft and clears its schedule.
func (q *Queries) MarkContentDraft(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE contents SET status = 'draft', scheduled_at = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("reverting content %d to draft: %w", id, err)
	}
	return nil
}

// MarkContentPublished records a successful publish.
func (q *Queries) MarkContentPublished(ctx context.Context, id, wordpressPostID int64, publishedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE contents
		SET status = 'published', wordpress_post_id = ?, published_at = ?,
			error_message = NULL, updated_at = ?
		WHERE id = ?`,
		wordpressPostID, publishedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("publishing content %d: %w", id, err)
	}
	return nil
}

// MarkContentFailed records a failed publish attempt with its error message.
func (q *Queries) MarkContentFailed(ctx context.Context, id int64, errorMessage string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE contents SET status = 'failed', error_message = ?, updated_at = ?
		WHERE id = ?`,
		errorMessage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failing content %d: %w", id, err)
	}
	return nil
}

// DeleteContent removes a content record; owned images cascade.
func (q *Queries) DeleteContent(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting content %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDueScheduledContents returns scheduled contents whose publish time
// has passed, oldest first.
func (q *Queries) ListDueScheduledContents(ctx context.Context, now time.Time) ([]model.Content, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM contents
		WHERE status = 'scheduled' AND scheduled_at <= ?
		ORDER BY scheduled_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("listing due contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contents []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// ListUpcomingScheduledContents returns scheduled contents ordered by
// publish time, soonest first.
func (q *Queries) ListUpcomingScheduledContents(ctx context.Context, limit int64) ([]model.Content, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM contents
		WHERE status = 'scheduled'
		ORDER BY scheduled_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contents []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// StatusCount is one row of the per-status dashboard aggregate.
type StatusCount struct {
	Status model.ContentStatus `json:"status"`
	Count  int64               `json:"count"`
}

// CountContentsGroupedByStatus aggregates content counts per status.
func (q *Queries) CountContentsGroupedByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM contents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting contents by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

// ClientContentCount is one row of the per-client dashboard aggregate.
type ClientContentCount struct {
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name"`
	Count      int64  `json:"count"`
}

// CountContentsGroupedByClient aggregates content counts per client.
func (q *Queries) CountContentsGroupedByClient(ctx context.Context) ([]ClientContentCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.client_id, cl.name, COUNT(*)
		FROM contents c
		JOIN clients cl ON cl.id = c.client_id
		GROUP BY c.client_id, cl.name
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("counting contents by client: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []ClientContentCount
	for rows.Next() {
		var cc ClientContentCount
		if err := rows.Scan(&cc.ClientID, &cc.ClientName, &cc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

func scanContent(row rowScanner) (model.Content, error) {
	var c model.Content
	err := row.Scan(&c.ID, &c.ClientID, &c.Title, &c.Body, &c.Excerpt,
		&c.Status, &c.Keywords, &c.ScheduledAt, &c.PublishedAt,
		&c.WordPressPostID, &c.ThumbnailImageID, &c.ErrorMessage,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Content{}, err
	}
	return c, nil
}
