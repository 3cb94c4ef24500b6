// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gemini model defaults.
const (
	geminiDefaultTextModel  = "gemini-2.5-flash"
	geminiDefaultImageModel = "gemini-2.5-flash-image"
	geminiMaxOutputTokens   = 8192
)

// GeminiClient implements TextProvider and ImageProvider against the
// Google Generative Language API.
type GeminiClient struct {
	baseURL    string
	keys       *KeyRing
	textModel  string
	imageModel string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini client drawing keys from the ring.
func NewGeminiClient(keys *KeyRing) *GeminiClient {
	return &GeminiClient{
		baseURL:    "https://generativelanguage.googleapis.com/v1beta",
		keys:       keys,
		textModel:  geminiDefaultTextModel,
		imageModel: geminiDefaultImageModel,
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
}

// Name implements TextProvider and ImageProvider.
func (c *GeminiClient) Name() string { return ProviderGemini }

// WithBaseURL overrides the API base URL. Used by tests.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = baseURL
	return c
}

// WithModels overrides the default text and image models.
func (c *GeminiClient) WithModels(textModel, imageModel string) *GeminiClient {
	if textModel != "" {
		c.textModel = textModel
	}
	if imageModel != "" {
		c.imageModel = imageModel
	}
	return c
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateText implements TextProvider.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": geminiMaxOutputTokens,
		},
	}

	result, err := c.doGenerate(ctx, c.textModel, body)
	if err != nil {
		return "", err
	}

	var text string
	for _, candidate := range result.Candidates {
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini text: %w", ErrEmptyGeneration)
	}
	return text, nil
}

// GenerateImage implements ImageProvider. Gemini returns the image as
// base64 inline data alongside optional text parts.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"IMAGE", "TEXT"},
		},
	}

	result, err := c.doGenerate(ctx, c.imageModel, body)
	if err != nil {
		return nil, err
	}

	for _, candidate := range result.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("gemini image base64 decode: %w", err)
			}
			return &Image{Data: data, MimeType: part.InlineData.MimeType}, nil
		}
	}
	return nil, fmt.Errorf("gemini image: %w", ErrNoImageReturned)
}

// doGenerate performs one generateContent call with the next key in rotation.
func (c *GeminiClient) doGenerate(ctx context.Context, model string, body any) (*geminiResponse, error) {
	apiKey := c.keys.Next()
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: no API key configured")
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini marshal: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini read: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   ProviderGemini,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(respBody),
		}
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("gemini decode: %w", err)
	}
	return &result, nil
}

// truncateBody keeps provider error snippets short enough for envelopes
// and logs.
func truncateBody(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
