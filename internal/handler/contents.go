// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/service"
)

// textDownloadPolicy strips every tag for plain-text downloads.
var textDownloadPolicy = bluemonday.StrictPolicy()

// ContentResponse represents one content record in API responses.
type ContentResponse struct {
	ID               int64      `json:"id"`
	ClientID         int64      `json:"client_id"`
	Title            string     `json:"title"`
	Body             string     `json:"content"`
	Excerpt          string     `json:"excerpt"`
	Status           string     `json:"status"`
	Keywords         []string   `json:"keywords"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	WordPressPostID  *int64     `json:"wordpress_post_id,omitempty"`
	ThumbnailImageID *int64     `json:"thumbnail_image_id,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func contentToResponse(c model.Content) ContentResponse {
	resp := ContentResponse{
		ID:        c.ID,
		ClientID:  c.ClientID,
		Title:     c.Title,
		Body:      c.Body,
		Excerpt:   c.Excerpt,
		Status:    c.Status.String(),
		Keywords:  c.KeywordList(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if c.ScheduledAt.Valid {
		resp.ScheduledAt = &c.ScheduledAt.Time
	}
	if c.PublishedAt.Valid {
		resp.PublishedAt = &c.PublishedAt.Time
	}
	if c.WordPressPostID.Valid {
		resp.WordPressPostID = &c.WordPressPostID.Int64
	}
	if c.ThumbnailImageID.Valid {
		resp.ThumbnailImageID = &c.ThumbnailImageID.Int64
	}
	if c.ErrorMessage.Valid {
		resp.ErrorMessage = c.ErrorMessage.String
	}
	return resp
}

func contentsToResponses(contents []model.Content) []ContentResponse {
	out := make([]ContentResponse, 0, len(contents))
	for _, c := range contents {
		out = append(out, contentToResponse(c))
	}
	return out
}

// ImageResponse represents stored image metadata, without the blob.
type ImageResponse struct {
	ID        int64     `json:"id"`
	ContentID int64     `json:"content_id"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	AltText   string    `json:"alt_text"`
	Position  int64     `json:"position"`
	Width     int64     `json:"width"`
	Height    int64     `json:"height"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func imageToResponse(img model.ContentImage) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		ContentID: img.ContentID,
		URL:       fmt.Sprintf("/api/contents/%d/images/%d", img.ContentID, img.ID),
		MimeType:  img.MimeType,
		AltText:   img.AltText,
		Position:  img.Position,
		Width:     img.Width,
		Height:    img.Height,
		SizeBytes: img.SizeBytes,
		CreatedAt: img.CreatedAt,
	}
}

// GenerateContentRequest is the request body for POST /api/contents/generate.
type GenerateContentRequest struct {
	ClientID      int64    `json:"client_id"`
	Keywords      []string `json:"keywords"`
	Title         string   `json:"title,omitempty"`
	GenerateImage bool     `json:"generate_image,omitempty"`
	ImagePrompt   string   `json:"image_prompt,omitempty"`
}

// GenerateContent handles POST /api/contents/generate.
func (h *Handler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	var req GenerateContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := h.svc.Generate(r.Context(), service.GenerateParams{
		ClientID:      req.ClientID,
		Keywords:      req.Keywords,
		Title:         req.Title,
		GenerateImage: req.GenerateImage,
		ImagePrompt:   req.ImagePrompt,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.svc.InvalidateDashboardStats(r.Context())
	writeJSONSuccess(w, http.StatusCreated, contentToResponse(content))
}

// ListContents handles GET /api/contents.
func (h *Handler) ListContents(w http.ResponseWriter, r *http.Request) {
	filter := service.ContentFilter{
		ClientID: queryInt64(r, "client_id", 0),
		Status:   r.URL.Query().Get("status"),
		Limit:    queryInt64(r, "limit", 20),
		Offset:   queryInt64(r, "offset", 0),
	}

	page, err := h.svc.ListContents(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"items": contentsToResponses(page.Items),
		"total": page.Total,
	})
}

// ListScheduled handles GET /api/contents/scheduled.
func (h *Handler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	limit := queryInt64(r, "limit", 50)
	contents, err := h.svc.ListScheduled(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, contentsToResponses(contents))
}

// GetContent handles GET /api/contents/{id}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := h.svc.GetContent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, contentToResponse(content))
}

// DeleteContent handles DELETE /api/contents/{id}.
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.svc.InvalidateDashboardStats(r.Context())
	writeJSONSuccess(w, http.StatusOK, map[string]any{"deleted": id})
}

// ScheduleContentRequest is the request body for scheduling.
type ScheduleContentRequest struct {
	ScheduledAt string `json:"scheduled_at"`
}

// ScheduleContent handles POST /api/contents/{id}/schedule.
func (h *Handler) ScheduleContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ScheduleContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("scheduled_at must be RFC 3339, got %q", req.ScheduledAt))
		return
	}

	content, err := h.svc.Schedule(r.Context(), id, at)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.svc.InvalidateDashboardStats(r.Context())
	writeJSONSuccess(w, http.StatusOK, contentToResponse(content))
}

// CancelSchedule handles POST /api/contents/{id}/cancel-schedule.
func (h *Handler) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := h.svc.CancelSchedule(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.svc.InvalidateDashboardStats(r.Context())
	writeJSONSuccess(w, http.StatusOK, contentToResponse(content))
}

// PublishContentRequest is the optional request body for publishing.
type PublishContentRequest struct {
	Simulate bool `json:"simulate,omitempty"`
}

// PublishContent handles POST /api/contents/{id}/publish.
func (h *Handler) PublishContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The body is optional; an absent body means a real publish.
	var req PublishContentRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	content, err := h.svc.Publish(r.Context(), id, req.Simulate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.svc.InvalidateDashboardStats(r.Context())
	writeJSONSuccess(w, http.StatusOK, contentToResponse(content))
}

// DownloadContent handles GET /api/contents/{id}/download?format=txt|html.
func (h *Handler) DownloadContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "txt" {
		writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("format must be html or txt, got %q", format))
		return
	}

	content, err := h.svc.GetContent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var body, contentType string
	switch format {
	case "txt":
		body = textDownloadPolicy.Sanitize(content.Body)
		contentType = "text/plain; charset=utf-8"
	default:
		body = content.Body
		contentType = "text/html; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="content-%d.%s"`, id, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// ListContentImages handles GET /api/contents/{id}/images.
func (h *Handler) ListContentImages(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	images, err := h.svc.ListContentImages(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, imageToResponse(img))
	}
	writeJSONSuccess(w, http.StatusOK, out)
}

// GetContentImage handles GET /api/contents/{id}/images/{imageID},
// serving the stored blob. Blobs are immutable, so the response carries
// a long-lived cache header.
func (h *Handler) GetContentImage(w http.ResponseWriter, r *http.Request) {
	contentID, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	imageID, err := idParam(r, "imageID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := h.svc.GetContentImage(r.Context(), contentID, imageID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
