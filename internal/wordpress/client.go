// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wordpress is a minimal client for the WordPress REST API
// covering what publishing needs: connection checks, media uploads and
// post creation, authenticated with an application password.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the WordPress REST API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wordpress api: %s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("wordpress api: status %d", e.StatusCode)
}

// Client talks to one WordPress site.
type Client struct {
	siteURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a client for the given site. The password is a
// WordPress application password; spaces in it are significant and are
// sent as-is.
func NewClient(siteURL, username, appPassword string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		siteURL:    strings.TrimRight(siteURL, "/"),
		username:   username,
		password:   appPassword,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ConnectionStatus is the result of probing a site.
type ConnectionStatus struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	SiteName string `json:"site_name,omitempty"`
}

// PostParams describes a post to create.
type PostParams struct {
	Title           string
	HTMLBody        string
	Excerpt         string
	Status          string // publish, draft, future
	FeaturedMediaID int64
	Categories      []int64
	Tags            []int64
}

// TestConnection verifies the site is reachable and the credentials can
// read posts. It never mutates the remote site.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	// The API root carries the site name and proves the REST API is
	// enabled at all.
	var site struct {
		Name string `json:"name"`
	}
	if err := c.doJSONAbsolute(ctx, c.siteURL+"/wp-json", &site); err != nil {
		return ConnectionStatus{OK: false, Message: fmt.Sprintf("site unreachable: %v", err)}
	}

	var posts []json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/posts?per_page=1&context=edit", nil, &posts); err != nil {
		return ConnectionStatus{OK: false, SiteName: site.Name, Message: fmt.Sprintf("credentials rejected: %v", err)}
	}

	return ConnectionStatus{OK: true, SiteName: site.Name, Message: "connection successful"}
}

// CreatePost creates a post and returns the remote post ID.
func (c *Client) CreatePost(ctx context.Context, p PostParams) (int64, error) {
	if p.Status == "" {
		p.Status = "publish"
	}

	payload := map[string]any{
		"title":   p.Title,
		"content": p.HTMLBody,
		"excerpt": p.Excerpt,
		"status":  p.Status,
	}
	if p.FeaturedMediaID > 0 {
		payload["featured_media"] = p.FeaturedMediaID
	}
	if len(p.Categories) > 0 {
		payload["categories"] = p.Categories
	}
	if len(p.Tags) > 0 {
		payload["tags"] = p.Tags
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/posts", payload, &created); err != nil {
		return 0, fmt.Errorf("creating post: %w", err)
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("creating post: no post ID in response")
	}
	return created.ID, nil
}

// UploadMedia uploads one image to the media library and returns the
// media ID, for use as featured_media on a later post.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename, mimeType, altText string) (int64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("building upload: %w", err)
	}
	if altText != "" {
		if err := writer.WriteField("alt_text", altText); err != nil {
			return 0, fmt.Errorf("building upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL("/media"), &body)
	if err != nil {
		return 0, fmt.Errorf("media request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("uploading media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading media response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, apiErrorFrom(resp.StatusCode, respBody)
	}

	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &media); err != nil {
		return 0, fmt.Errorf("decoding media response: %w", err)
	}
	if media.ID == 0 {
		return 0, fmt.Errorf("uploading media: no media ID in response")
	}
	return media.ID, nil
}

// doJSON performs one JSON request against the wp/v2 namespace.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling site: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// doJSONAbsolute performs one authenticated GET against a full URL
// outside the wp/v2 namespace.
func (c *Client) doJSONAbsolute(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling site: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp.StatusCode, respBody)
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) apiURL(path string) string {
	return c.siteURL + "/wp-json/wp/v2" + path
}

// authHeader builds the Basic auth header. WordPress expects the raw
// UTF-8 user:password pair base64-encoded.
func (c *Client) authHeader() string {
	creds := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	return "Basic " + creds
}

// apiErrorFrom decodes the standard WordPress error envelope when present.
func apiErrorFrom(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil {
		apiErr.Code = wpErr.Code
		apiErr.Message = wpErr.Message
	}
	return apiErr
}
