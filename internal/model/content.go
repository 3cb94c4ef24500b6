// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// ContentStatus is the lifecycle state of a content record.
type ContentStatus string

// Content lifecycle states.
const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusFailed    ContentStatus = "failed"
)

// contentTransitions is the allowed state transition table.
// published is terminal-success; failed is terminal-failure but may be
// re-published manually, so failed -> published and failed -> failed stay open.
var contentTransitions = map[ContentStatus][]ContentStatus{
	ContentStatusDraft:     {ContentStatusScheduled, ContentStatusPublished, ContentStatusFailed},
	ContentStatusScheduled: {ContentStatusDraft, ContentStatusPublished, ContentStatusFailed},
	ContentStatusPublished: {},
	ContentStatusFailed:    {ContentStatusPublished, ContentStatusFailed},
}

// IsValid reports whether s is a known content status.
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusScheduled, ContentStatusPublished, ContentStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s ContentStatus) CanTransitionTo(next ContentStatus) bool {
	for _, allowed := range contentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s ContentStatus) String() string { return string(s) }

// Content represents one generated article plus its metadata and lifecycle status.
type Content struct {
	ID               int64          `json:"id"`
	ClientID         int64          `json:"client_id"`
	Title            string         `json:"title"`
	Body             string         `json:"content"`
	Excerpt          string         `json:"excerpt"`
	Status           ContentStatus  `json:"status"`
	Keywords         string         `json:"-"` // JSON array, ordered
	ScheduledAt      sql.NullTime   `json:"scheduled_at,omitempty"`
	PublishedAt      sql.NullTime   `json:"published_at,omitempty"`
	WordPressPostID  sql.NullInt64  `json:"wordpress_post_id,omitempty"`
	ThumbnailImageID sql.NullInt64  `json:"thumbnail_image_id,omitempty"`
	ErrorMessage     sql.NullString `json:"error_message,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsPublished returns true if the content has been pushed to the remote site.
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// IsScheduled returns true if the content is waiting for its publish time.
func (c *Content) IsScheduled() bool {
	return c.Status == ContentStatusScheduled
}

// KeywordList decodes the stored keyword JSON array, preserving order.
func (c *Content) KeywordList() []string {
	if c.Keywords == "" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(c.Keywords), &keywords); err != nil {
		return nil
	}
	return keywords
}

// EncodeKeywords serializes an ordered keyword list for storage.
func EncodeKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "[]"
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "[]"
	}
	return string(data)
}
