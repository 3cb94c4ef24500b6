// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/pressflow/internal/model"
)

// CreateContentImageParams holds one generated image ready for storage.
type CreateContentImageParams struct {
	ContentID int64
	Data      []byte
	MimeType  string
	AltText   string
	Position  int64
	Width     int64
	Height    int64
}

// CreateContentImage stores a generated image blob at its ordinal position.
// The (content_id, position) pair is unique, which makes a crashed and
// re-run materialization insert idempotent per slot.
func (q *Queries) CreateContentImage(ctx context.Context, p CreateContentImageParams) (model.ContentImage, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO content_images (content_id, data, mime_type, alt_text,
			position, width, height, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ContentID, p.Data, p.MimeType, p.AltText, p.Position,
		p.Width, p.Height, int64(len(p.Data)), time.Now())
	if err != nil {
		return model.ContentImage{}, fmt.Errorf("inserting content image: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.ContentImage{}, fmt.Errorf("content image insert id: %w", err)
	}
	return q.GetContentImage(ctx, p.ContentID, id)
}

// GetContentImage fetches one stored image including its blob, scoped to
// the owning content so image ids cannot be probed across contents.
func (q *Queries) GetContentImage(ctx context.Context, contentID, imageID int64) (model.ContentImage, error) {
	var img model.ContentImage
	err := q.db.QueryRowContext(ctx, `
		SELECT id, content_id, data, mime_type, alt_text, position, width,
			height, size_bytes, created_at
		FROM content_images
		WHERE id = ? AND content_id = ?`, imageID, contentID).Scan(
		&img.ID, &img.ContentID, &img.Data, &img.MimeType, &img.AltText,
		&img.Position, &img.Width, &img.Height, &img.SizeBytes, &img.CreatedAt)
	if err != nil {
		return model.ContentImage{}, err
	}
	return img, nil
}

// ListContentImages returns image metadata (no blobs) for one content
// record in position order.
func (q *Queries) ListContentImages(ctx context.Context, contentID int64) ([]model.ContentImage, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, content_id, mime_type, alt_text, position, width, height,
			size_bytes, created_at
		FROM content_images
		WHERE content_id = ?
		ORDER BY position ASC`, contentID)
	if err != nil {
		return nil, fmt.Errorf("listing content images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var images []model.ContentImage
	for rows.Next() {
		var img model.ContentImage
		if err := rows.Scan(&img.ID, &img.ContentID, &img.MimeType,
			&img.AltText, &img.Position, &img.Width, &img.Height,
			&img.SizeBytes, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// CountContentImages returns the number of images owned by a content record.
func (q *Queries) CountContentImages(ctx context.Context, contentID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_images WHERE content_id = ?`, contentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting content images: %w", err)
	}
	return count, nil
}
