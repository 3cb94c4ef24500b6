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

	"github.com/sethvargo/go-retry"
)

// OpenAI model defaults.
const (
	openAIDefaultTextModel  = "gpt-4o"
	openAIDefaultImageModel = "dall-e-3"
	openAIMaxTokens         = 8192
	openAIImageSize         = "1792x1024"
)

// OpenAIClient implements TextProvider and ImageProvider against the
// OpenAI REST API with Bearer auth.
type OpenAIClient struct {
	baseURL    string
	keys       *KeyRing
	textModel  string
	imageModel string
	httpClient *http.Client
}

// NewOpenAIClient creates an OpenAI client drawing keys from the ring.
func NewOpenAIClient(keys *KeyRing) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    "https://api.openai.com/v1",
		keys:       keys,
		textModel:  openAIDefaultTextModel,
		imageModel: openAIDefaultImageModel,
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
}

// Name implements TextProvider and ImageProvider.
func (c *OpenAIClient) Name() string { return ProviderOpenAI }

// WithBaseURL overrides the API base URL. Used by tests.
func (c *OpenAIClient) WithBaseURL(baseURL string) *OpenAIClient {
	c.baseURL = baseURL
	return c
}

// WithModels overrides the default text and image models.
func (c *OpenAIClient) WithModels(textModel, imageModel string) *OpenAIClient {
	if textModel != "" {
		c.textModel = textModel
	}
	if imageModel != "" {
		c.imageModel = imageModel
	}
	return c
}

// GenerateText implements TextProvider.
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": c.textModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": openAIMaxTokens,
	}

	respBody, err := c.doJSONRequest(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai chat: %w", ErrEmptyGeneration)
	}
	return result.Choices[0].Message.Content, nil
}

// GenerateImage implements ImageProvider. DALL-E returns base64 inline;
// gpt-image models may answer with a URL instead, which is then fetched.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	body := map[string]any{
		"model":  c.imageModel,
		"prompt": prompt,
		"n":      1,
		"size":   openAIImageSize,
	}
	// gpt-image-1 doesn't support response_format
	if c.imageModel == "dall-e-3" {
		body["response_format"] = "b64_json"
	}

	respBody, err := c.doJSONRequest(ctx, c.baseURL+"/images/generations", body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("openai image decode: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("openai image: %w", ErrNoImageReturned)
	}

	switch {
	case result.Data[0].B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai image base64 decode: %w", err)
		}
		return &Image{Data: data, MimeType: "image/png"}, nil
	case result.Data[0].URL != "":
		data, mimeType, err := c.downloadImage(ctx, result.Data[0].URL)
		if err != nil {
			return nil, fmt.Errorf("openai image download: %w", err)
		}
		return &Image{Data: data, MimeType: mimeType}, nil
	default:
		return nil, fmt.Errorf("openai image: %w", ErrNoImageReturned)
	}
}

// doJSONRequest performs a JSON HTTP POST with Bearer token auth.
func (c *OpenAIClient) doJSONRequest(ctx context.Context, url string, body any) ([]byte, error) {
	apiKey := c.keys.Next()
	if apiKey == "" {
		return nil, fmt.Errorf("openai: no API key configured")
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai read: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(respBody),
		}
	}

	return respBody, nil
}

// downloadImage fetches an already-generated image from a provider URL.
// Unlike generation itself, this leg retries transient failures: the
// image exists, only the fetch flaked.
func (c *OpenAIClient) downloadImage(ctx context.Context, imgURL string) ([]byte, string, error) {
	var data []byte
	var mimeType string

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("download failed with status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download failed with status %d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		mimeType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}
