// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Supported MIME types for generated images.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeWebP = "image/webp"
)

// IsSupportedImageMimeType reports whether a MIME type can be stored.
func IsSupportedImageMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeWebP:
		return true
	}
	return false
}

// ContentImage is one generated image owned exclusively by a content
// record. Images are immutable after creation and are removed only when
// the owning content is deleted. Position is 0-based in document order;
// position 0 is the thumbnail.
type ContentImage struct {
	ID        int64     `json:"id"`
	ContentID int64     `json:"content_id"`
	Data      []byte    `json:"-"`
	MimeType  string    `json:"mime_type"`
	AltText   string    `json:"alt_text"`
	Position  int64     `json:"position"`
	Width     int64     `json:"width"`
	Height    int64     `json:"height"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// IsThumbnail returns true for the image designated as the content thumbnail.
func (i *ContentImage) IsThumbnail() bool {
	return i.Position == 0
}
