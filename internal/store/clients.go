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

const clientColumns = `id, name, description, wordpress_url, wordpress_username,
	wordpress_password, gemini_api_key, openai_api_key, system_prompt,
	is_active, created_at, updated_at`

// CreateClientParams holds the fields for registering a client site.
type CreateClientParams struct {
	Name              string
	Description       sql.NullString
	WordPressURL      string
	WordPressUsername string
	WordPressPassword string
	GeminiAPIKey      sql.NullString
	OpenAIAPIKey      sql.NullString
	SystemPrompt      sql.NullString
	IsActive          bool
}

// CreateClient inserts a new client and returns the stored row.
func (q *Queries) CreateClient(ctx context.Context, p CreateClientParams) (model.Client, error) {
	now := time.Now()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO clients (name, description, wordpress_url, wordpress_username,
			wordpress_password, gemini_api_key, openai_api_key, system_prompt,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.WordPressURL, p.WordPressUsername,
		p.WordPressPassword, p.GeminiAPIKey, p.OpenAIAPIKey, p.SystemPrompt,
		boolToInt(p.IsActive), now, now)
	if err != nil {
		return model.Client{}, fmt.Errorf("inserting client: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Client{}, fmt.Errorf("client insert id: %w", err)
	}
	return q.GetClient(ctx, id)
}

// GetClient fetches one client by id.
func (q *Queries) GetClient(ctx context.Context, id int64) (model.Client, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

// ListClients returns all clients, newest first.
func (q *Queries) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClientParams holds mutable client fields.
type UpdateClientParams struct {
	ID                int64
	Name              string
	Description       sql.NullString
	WordPressURL      string
	WordPressUsername string
	WordPressPassword string
	GeminiAPIKey      sql.NullString
	OpenAIAPIKey      sql.NullString
	SystemPrompt      sql.NullString
	IsActive          bool
}

// UpdateClient rewrites a client row and returns the stored result.
func (q *Queries) UpdateClient(ctx context.Context, p UpdateClientParams) (model.Client, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, description = ?, wordpress_url = ?, wordpress_username = ?,
			wordpress_password = ?, gemini_api_key = ?, openai_api_key = ?,
			system_prompt = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.WordPressURL, p.WordPressUsername,
		p.WordPressPassword, p.GeminiAPIKey, p.OpenAIAPIKey, p.SystemPrompt,
		boolToInt(p.IsActive), time.Now(), p.ID)
	if err != nil {
		return model.Client{}, fmt.Errorf("updating client %d: %w", p.ID, err)
	}
	return q.GetClient(ctx, p.ID)
}

// DeleteClient removes a client row. Owned contents (and their images)
// cascade away; activity log rows keep a NULL client reference.
func (q *Queries) DeleteClient(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting client %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetClientStats aggregates content counts for one client.
func (q *Queries) GetClientStats(ctx context.Context, clientID int64) (model.ClientStats, error) {
	stats := model.ClientStats{ClientID: clientID}
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'draft' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'scheduled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'published' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM contents WHERE client_id = ?`, clientID).Scan(
		&stats.TotalContents, &stats.DraftCount, &stats.ScheduledCount,
		&stats.PublishedCount, &stats.FailedCount)
	if err != nil {
		return model.ClientStats{}, fmt.Errorf("client %d stats: %w", clientID, err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (model.Client, error) {
	var c model.Client
	var isActive int64
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.WordPressURL,
		&c.WordPressUsername, &c.WordPressPassword, &c.GeminiAPIKey,
		&c.OpenAIAPIKey, &c.SystemPrompt, &isActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Client{}, err
	}
	c.IsActive = isActive != 0
	return c, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
