// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/util"
	"github.com/olegiv/pressflow/internal/wordpress"
)

// GetContent loads one content record.
func (s *Service) GetContent(ctx context.Context, id int64) (model.Content, error) {
	content, err := s.queries.GetContent(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Content{}, &NotFoundError{Resource: "content", ID: id}
		}
		return model.Content{}, fmt.Errorf("loading content %d: %w", id, err)
	}
	return content, nil
}

// Schedule moves a content record to scheduled status at a strictly
// future time.
func (s *Service) Schedule(ctx context.Context, id int64, at time.Time) (model.Content, error) {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return model.Content{}, err
	}

	if !content.Status.CanTransitionTo(model.ContentStatusScheduled) {
		return model.Content{}, Validationf("cannot schedule content in %s status", content.Status)
	}
	if !at.After(time.Now()) {
		return model.Content{}, ErrInvalidSchedule
	}

	if err := s.queries.MarkContentScheduled(ctx, id, at); err != nil {
		return model.Content{}, err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: content.ClientID, Valid: true},
		model.ActionContentScheduled,
		fmt.Sprintf(`{"content_id":%d,"scheduled_at":%q}`, id, at.Format(time.RFC3339)),
		model.ActivityStatusSuccess)

	return s.queries.GetContent(ctx, id)
}

// CancelSchedule reverts a scheduled content record to draft.
func (s *Service) CancelSchedule(ctx context.Context, id int64) (model.Content, error) {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return model.Content{}, err
	}

	if content.Status != model.ContentStatusScheduled {
		return model.Content{}, ErrNotScheduled
	}

	if err := s.queries.MarkContentDraft(ctx, id); err != nil {
		return model.Content{}, err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: content.ClientID, Valid: true},
		model.ActionContentScheduleCanceled,
		fmt.Sprintf(`{"content_id":%d}`, id),
		model.ActivityStatusSuccess)

	return s.queries.GetContent(ctx, id)
}

// Publish pushes a content record to its client's WordPress site, or
// performs a local simulated publish when requested and allowed by
// configuration. Any remote failure moves the record to failed status
// with the error recorded.
func (s *Service) Publish(ctx context.Context, id int64, simulate bool) (model.Content, error) {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return model.Content{}, err
	}

	if simulate {
		return s.publishSimulated(ctx, content)
	}

	if !content.Status.CanTransitionTo(model.ContentStatusPublished) {
		return model.Content{}, Validationf("cannot publish content in %s status", content.Status)
	}

	client, err := s.queries.GetClient(ctx, content.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Content{}, &NotFoundError{Resource: "client", ID: content.ClientID}
		}
		return model.Content{}, fmt.Errorf("loading client %d: %w", content.ClientID, err)
	}
	if !client.HasWordPressCredentials() {
		return model.Content{}, Validationf("client %d has no WordPress credentials", client.ID)
	}

	password, err := s.sealer.Open(client.WordPressPassword)
	if err != nil {
		return model.Content{}, fmt.Errorf("opening client %d credentials: %w", client.ID, err)
	}
	publisher := s.newPublisher(client.WordPressURL, client.WordPressUsername, password)

	remoteCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout())
	defer cancel()

	featuredMediaID, err := s.uploadThumbnail(remoteCtx, publisher, &content)
	if err != nil {
		return s.failPublish(ctx, content, fmt.Errorf("uploading thumbnail: %w", err))
	}

	body := StripPlaceholders(content.Body)
	postID, err := publisher.CreatePost(remoteCtx, wordpress.PostParams{
		Title:           content.Title,
		HTMLBody:        body,
		Excerpt:         content.Excerpt,
		Status:          "publish",
		FeaturedMediaID: featuredMediaID,
	})
	if err != nil {
		return s.failPublish(ctx, content, fmt.Errorf("creating post: %w", err))
	}

	publishedAt := time.Now()
	if err := s.queries.MarkContentPublished(ctx, id, postID, publishedAt); err != nil {
		return model.Content{}, err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: content.ClientID, Valid: true},
		model.ActionContentPublished,
		fmt.Sprintf(`{"content_id":%d,"wordpress_post_id":%d}`, id, postID),
		model.ActivityStatusSuccess)

	return s.queries.GetContent(ctx, id)
}

// publishSimulated performs the local half of a publish with the
// configured sentinel post id. Re-simulating an already published
// record is a no-op.
func (s *Service) publishSimulated(ctx context.Context, content model.Content) (model.Content, error) {
	if !s.cfg.SimulatedPublish {
		return model.Content{}, Validationf("simulated publishing is disabled")
	}

	if content.Status == model.ContentStatusPublished {
		return content, nil
	}
	if !content.Status.CanTransitionTo(model.ContentStatusPublished) {
		return model.Content{}, Validationf("cannot publish content in %s status", content.Status)
	}

	if err := s.queries.MarkContentPublished(ctx, content.ID, s.cfg.SimulatedPostID, time.Now()); err != nil {
		return model.Content{}, err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: content.ClientID, Valid: true},
		model.ActionContentPublished,
		fmt.Sprintf(`{"content_id":%d,"simulated":true}`, content.ID),
		model.ActivityStatusSuccess)

	return s.queries.GetContent(ctx, content.ID)
}

// failPublish records a publish failure and returns the wrapped cause.
func (s *Service) failPublish(ctx context.Context, content model.Content, cause error) (model.Content, error) {
	if err := s.queries.MarkContentFailed(ctx, content.ID, cause.Error()); err != nil {
		s.logger.Error("recording publish failure", "content_id", content.ID, "error", err)
	}

	s.logActivity(ctx, sql.NullInt64{Int64: content.ClientID, Valid: true},
		model.ActionContentPublishFailed,
		fmt.Sprintf(`{"content_id":%d,"error":%q}`, content.ID, cause.Error()),
		model.ActivityStatusError)

	return model.Content{}, fmt.Errorf("publishing content %d: %w", content.ID, cause)
}

// uploadThumbnail pushes the thumbnail image (when one exists) to the
// site's media library and returns the remote media id, 0 when the
// content has no thumbnail.
func (s *Service) uploadThumbnail(ctx context.Context, publisher Publisher, content *model.Content) (int64, error) {
	if !content.ThumbnailImageID.Valid {
		return 0, nil
	}

	img, err := s.queries.GetContentImage(ctx, content.ID, content.ThumbnailImageID.Int64)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil // Dangling reference; publish without a thumbnail.
		}
		return 0, err
	}

	ext := ".jpg"
	if img.MimeType == model.MimeTypePNG {
		ext = ".png"
	}
	filename := util.MediaFilename(content.Title, uuid.NewString(), ext)

	return publisher.UploadMedia(ctx, img.Data, filename, img.MimeType, img.AltText)
}

// Delete removes a content record; its images cascade away with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteContent(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Resource: "content", ID: id}
		}
		return err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: content.ClientID, Valid: true},
		model.ActionContentDeleted,
		fmt.Sprintf(`{"content_id":%d,"title":%q}`, id, content.Title),
		model.ActivityStatusSuccess)

	return nil
}

// PublishDue publishes every scheduled content whose time has passed.
// Failures are recorded per content and do not stop the batch. Returns
// the number of successful publishes.
func (s *Service) PublishDue(ctx context.Context) (int, error) {
	due, err := s.queries.ListDueScheduledContents(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	published := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		if _, err := s.Publish(ctx, due[i].ID, false); err != nil {
			s.logger.Warn("scheduled publish failed",
				"content_id", due[i].ID, "client_id", due[i].ClientID, "error", err)
			continue
		}
		published++
	}
	return published, nil
}
