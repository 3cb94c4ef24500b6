// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/pressflow/internal/ai"
	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/store"
)

// Input bounds for content generation.
const (
	MaxKeywords   = 10
	MaxTitleRunes = 200
)

// storedHTMLPolicy sanitizes model output before storage. UGC policy
// plus the class attributes the dashboard rendering and the image
// post-processor rely on (image-placeholder markers, section summaries,
// hashtag blocks).
var storedHTMLPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("class").OnElements("p", "div", "span", "figure", "h2", "h3")
	return p
}()

// GenerateParams are the inputs for one content generation request.
type GenerateParams struct {
	ClientID      int64
	Keywords      []string
	Title         string
	GenerateImage bool
	ImagePrompt   string
}

// Generate runs the full generation pipeline: prompt construction, text
// generation, normalization, sanitization, draft persistence and
// optional image materialization. The result is always a draft.
func (s *Service) Generate(ctx context.Context, p GenerateParams) (model.Content, error) {
	if err := validateGenerateParams(&p); err != nil {
		return model.Content{}, err
	}

	client, err := s.queries.GetClient(ctx, p.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Content{}, &NotFoundError{Resource: "client", ID: p.ClientID}
		}
		return model.Content{}, fmt.Errorf("loading client %d: %w", p.ClientID, err)
	}
	if !client.IsActive {
		return model.Content{}, Validationf("client %d is inactive", client.ID)
	}

	prompt := ai.BuildPrompt(p.Keywords, p.Title, client.SystemPrompt.String)
	generator := ai.NewGenerator(s.textProviderFor(&client))

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.TextTimeout())
	defer cancel()

	generated, err := generator.Generate(genCtx, prompt, p.Title, p.Keywords)
	if err != nil {
		s.logActivity(ctx, sql.NullInt64{Int64: client.ID, Valid: true},
			model.ActionContentGenerated,
			fmt.Sprintf(`{"error":%q}`, err.Error()),
			model.ActivityStatusError)
		return model.Content{}, fmt.Errorf("generating content: %w", err)
	}

	content, err := s.queries.CreateContent(ctx, store.CreateContentParams{
		ClientID: client.ID,
		Title:    generated.Title,
		Body:     storedHTMLPolicy.Sanitize(generated.Body),
		Excerpt:  generated.Excerpt,
		Keywords: model.EncodeKeywords(p.Keywords),
	})
	if err != nil {
		return model.Content{}, err
	}

	if p.GenerateImage {
		content = s.materializeContentImages(ctx, &client, content, p.ImagePrompt)
	} else {
		// Placeholders are dashboard noise when image generation was
		// declined; strip them.
		stripped := StripPlaceholders(content.Body)
		if stripped != content.Body {
			if err := s.queries.UpdateContentBody(ctx, content.ID, stripped, content.ThumbnailImageID); err == nil {
				content.Body = stripped
			}
		}
	}

	s.logActivity(ctx, sql.NullInt64{Int64: client.ID, Valid: true},
		model.ActionContentGenerated,
		fmt.Sprintf(`{"content_id":%d,"title":%q}`, content.ID, content.Title),
		model.ActivityStatusSuccess)

	return content, nil
}

// materializeContentImages runs the image pipeline for a fresh draft and
// persists the rewritten body. Image failures degrade to a text-only
// draft, they never fail the generation request.
func (s *Service) materializeContentImages(ctx context.Context, client *model.Client, content model.Content, imagePrompt string) model.Content {
	result, err := s.MaterializeImages(ctx, MaterializeParams{
		ContentID:   content.ID,
		HTML:        content.Body,
		Keywords:    content.KeywordList(),
		ImagePrompt: imagePrompt,
		Provider:    s.imageProviderFor(client),
	})
	if err != nil {
		s.logger.Warn("image materialization failed, keeping text-only draft",
			"content_id", content.ID, "error", err)
		return content
	}

	if err := s.queries.UpdateContentBody(ctx, content.ID, result.HTML, result.ThumbnailID); err != nil {
		s.logger.Error("persisting materialized body", "content_id", content.ID, "error", err)
		return content
	}

	updated, err := s.queries.GetContent(ctx, content.ID)
	if err != nil {
		return content
	}
	return updated
}

func validateGenerateParams(p *GenerateParams) error {
	if p.ClientID <= 0 {
		return Validationf("client_id is required")
	}

	var keywords []string
	for _, kw := range p.Keywords {
		if trimmed := strings.TrimSpace(kw); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	p.Keywords = keywords

	if len(p.Keywords) == 0 {
		return Validationf("at least one keyword is required")
	}
	if len(p.Keywords) > MaxKeywords {
		return Validationf("at most %d keywords are allowed", MaxKeywords)
	}

	p.Title = strings.TrimSpace(p.Title)
	if len([]rune(p.Title)) > MaxTitleRunes {
		return Validationf("title must be at most %d characters", MaxTitleRunes)
	}
	return nil
}
