// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/olegiv/pressflow/internal/ai"
	"github.com/olegiv/pressflow/internal/store"
)

// placeholderRegex matches image insertion points in generated HTML,
// both the wrapped form the prompt mandates and a bare marker for
// models that drop the wrapper:
//
//	<p class="image-placeholder">[IMAGE: description]</p>
//	[IMAGE: description]
var placeholderRegex = regexp.MustCompile(
	`(?i)(?:<p[^>]*class="[^"]*image-placeholder[^"]*"[^>]*>\s*)?\[IMAGE:\s*([^\]]*?)\s*\](?:\s*</p>)?`)

// StripPlaceholders removes every image placeholder from the HTML.
func StripPlaceholders(htmlBody string) string {
	return placeholderRegex.ReplaceAllString(htmlBody, "")
}

// MaterializeParams are the inputs of one image materialization pass.
type MaterializeParams struct {
	ContentID int64
	HTML      string
	Keywords  []string
	// ImagePrompt overrides the placeholder description when the
	// placeholder carries none, and drives standalone thumbnail
	// generation when the document has no placeholders at all.
	ImagePrompt string
	Provider    ai.ImageProvider
}

// MaterializeResult is the outcome of a materialization pass.
type MaterializeResult struct {
	HTML        string
	ThumbnailID sql.NullInt64
	Stored      int
}

// MaterializeImages walks the placeholders in document order, generates
// and stores an image for the first maxImages of them, and rewrites the
// HTML to reference the stored blobs. A failed placeholder is dropped
// and processing continues; the batch never aborts on a single
// generation failure. Every attempted placeholder counts against the
// budget, failed or not; placeholders beyond it are stripped without a
// provider call. The first stored image (position 0) becomes the
// thumbnail.
func (s *Service) MaterializeImages(ctx context.Context, p MaterializeParams) (MaterializeResult, error) {
	result := MaterializeResult{HTML: p.HTML}
	if p.Provider == nil {
		return result, Validationf("no image provider configured")
	}

	maxImages := s.cfg.MaxImages
	matches := placeholderRegex.FindAllStringSubmatchIndex(p.HTML, -1)

	if len(matches) == 0 {
		// No insertion points: an explicit image prompt still yields a
		// standalone thumbnail.
		if p.ImagePrompt == "" || maxImages == 0 {
			return result, nil
		}
		img, err := s.generateOneImage(ctx, p.Provider, p.ImagePrompt, p.Keywords, p.ContentID, 0)
		if err != nil {
			s.logger.Warn("thumbnail generation failed",
				"content_id", p.ContentID, "error", err)
			return result, nil
		}
		result.ThumbnailID = sql.NullInt64{Int64: img, Valid: true}
		result.Stored = 1
		return result, nil
	}

	var out strings.Builder
	last := 0
	attempted := 0
	position := int64(0)

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		out.WriteString(p.HTML[last:m[0]])
		last = m[1]

		if attempted >= maxImages {
			continue // Over budget: placeholder stripped.
		}
		attempted++

		description := ""
		if m[2] >= 0 {
			description = strings.TrimSpace(p.HTML[m[2]:m[3]])
		}
		if description == "" {
			description = p.ImagePrompt
		}
		if description == "" && len(p.Keywords) > 0 {
			description = p.Keywords[0]
		}

		imageID, err := s.generateOneImage(ctx, p.Provider, description, p.Keywords, p.ContentID, position)
		if err != nil {
			s.logger.Warn("image generation failed, dropping placeholder",
				"content_id", p.ContentID, "position", position, "error", err)
			continue
		}

		out.WriteString(fmt.Sprintf(`<figure><img src="/api/contents/%d/images/%d" alt="%s"></figure>`,
			p.ContentID, imageID, html.EscapeString(description)))

		if position == 0 {
			result.ThumbnailID = sql.NullInt64{Int64: imageID, Valid: true}
		}
		position++
		result.Stored++
	}
	out.WriteString(p.HTML[last:])

	result.HTML = out.String()
	return result, nil
}

// generateOneImage runs one generate-normalize-store round and returns
// the stored image id.
func (s *Service) generateOneImage(ctx context.Context, provider ai.ImageProvider, description string, keywords []string, contentID, position int64) (int64, error) {
	imgCtx, cancel := context.WithTimeout(ctx, s.cfg.ImageTimeout())
	defer cancel()

	generated, err := provider.GenerateImage(imgCtx, ai.BuildImagePrompt(description, keywords))
	if err != nil {
		return 0, err
	}

	normalized, err := s.processor.Normalize(generated.Data)
	if err != nil {
		return 0, fmt.Errorf("normalizing image: %w", err)
	}

	stored, err := s.queries.CreateContentImage(ctx, store.CreateContentImageParams{
		ContentID: contentID,
		Data:      normalized.Data,
		MimeType:  normalized.MimeType,
		AltText:   description,
		Position:  position,
		Width:     int64(normalized.Width),
		Height:    int64(normalized.Height),
	})
	if err != nil {
		return 0, fmt.Errorf("storing image: %w", err)
	}
	return stored.ID, nil
}
