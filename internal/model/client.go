// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the persistent domain types: registered client
// sites, generated content records with their lifecycle state machine,
// stored images and the append-only activity log.
package model

import (
	"database/sql"
	"time"
)

// Client represents a registered WordPress site and its credentials.
// WordPressPassword and the provider API keys are stored sealed (see
// the secrets package); the plaintext never reaches the database file.
type Client struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Description       sql.NullString `json:"description,omitempty"`
	WordPressURL      string         `json:"wordpress_url"`
	WordPressUsername string         `json:"wordpress_username"`
	WordPressPassword string         `json:"-"`
	GeminiAPIKey      sql.NullString `json:"-"`
	OpenAIAPIKey      sql.NullString `json:"-"`
	SystemPrompt      sql.NullString `json:"system_prompt,omitempty"`
	IsActive          bool           `json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// HasWordPressCredentials returns true if the client can talk to its remote site.
func (c *Client) HasWordPressCredentials() bool {
	return c.WordPressURL != "" && c.WordPressUsername != "" && c.WordPressPassword != ""
}

// ClientStats aggregates content counts for one client.
type ClientStats struct {
	ClientID       int64 `json:"client_id"`
	TotalContents  int64 `json:"total_contents"`
	DraftCount     int64 `json:"draft_count"`
	ScheduledCount int64 `json:"scheduled_count"`
	PublishedCount int64 `json:"published_count"`
	FailedCount    int64 `json:"failed_count"`
}
