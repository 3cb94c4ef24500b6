// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai adapts external generative providers (Gemini, OpenAI) into
// two narrow contracts: text generation normalized to title/body/excerpt,
// and image generation returning raw bytes plus a MIME type.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Provider identifiers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Errors surfaced by the adapters. Generation calls are never retried;
// the caller decides how to proceed.
var (
	// ErrEmptyGeneration means the provider answered but no text could be extracted.
	ErrEmptyGeneration = errors.New("provider returned no extractable text")
	// ErrNoImageReturned means the provider answered but no image payload was present.
	ErrNoImageReturned = errors.New("provider returned no image payload")
)

// ProviderError wraps a non-success response from an upstream provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Generated is the normalized result of one text generation call.
type Generated struct {
	Title   string
	Body    string // HTML fragment
	Excerpt string
}

// Image is the result of one image generation call.
type Image struct {
	Data     []byte
	MimeType string
}

// TextProvider generates raw text for a prompt. Output normalization
// is the Generator's job, not the provider's.
type TextProvider interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageProvider generates one image for a prompt.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// Generator combines a text provider with mandatory output normalization.
type Generator struct {
	provider TextProvider
}

// NewGenerator wraps a text provider.
func NewGenerator(provider TextProvider) *Generator {
	return &Generator{provider: provider}
}

// Generate runs one text generation call and normalizes the raw output:
// code fences stripped, markdown rendered, body fragment extracted, title
// and excerpt derived. explicitTitle wins over any heading in the output;
// the first keyword is the last-resort title.
func (g *Generator) Generate(ctx context.Context, prompt, explicitTitle string, keywords []string) (*Generated, error) {
	raw, err := g.provider.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, explicitTitle, keywords)
}
