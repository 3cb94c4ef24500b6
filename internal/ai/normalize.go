// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const excerptRuneLimit = 150

var (
	codeFenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```\\s*$")
	h1Regex        = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	bodyRegex      = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	mdHeadingRegex = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	htmlTagRegex   = regexp.MustCompile(`(?s)<[a-zA-Z/][^>]*>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	// stripPolicy removes every tag; used for excerpt derivation.
	stripPolicy = bluemonday.StrictPolicy()
)

// Normalize turns raw model output into title, HTML body and excerpt.
// explicitTitle wins over any heading found in the output; when neither
// exists the first keyword is used. Returns ErrEmptyGeneration when no
// usable text survives normalization.
func Normalize(raw, explicitTitle string, keywords []string) (*Generated, error) {
	body := StripCodeFences(raw)

	// Models sometimes ignore the HTML instruction and answer in
	// markdown; render it rather than storing heading markers verbatim.
	if looksLikeMarkdown(body) {
		rendered, err := renderMarkdown(body)
		if err == nil {
			body = rendered
		}
	}

	body = ExtractBodyFragment(body)
	body = strings.TrimSpace(body)

	if stripTags(body) == "" {
		return nil, ErrEmptyGeneration
	}

	title := strings.TrimSpace(explicitTitle)
	if title == "" {
		title = extractTitle(body)
	}
	if title == "" && len(keywords) > 0 {
		title = keywords[0]
	}

	return &Generated{
		Title:   title,
		Body:    body,
		Excerpt: DeriveExcerpt(body),
	}, nil
}

// StripCodeFences removes a markdown code-fence wrapper when the whole
// output is fenced.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// ExtractBodyFragment reduces a full HTML document to its body content.
// Fragments pass through unchanged.
func ExtractBodyFragment(s string) string {
	lower := strings.ToLower(s)
	if !strings.Contains(lower, "<!doctype") && !strings.Contains(lower, "<html") {
		return s
	}
	if m := bodyRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// DeriveExcerpt returns the first ~150 characters of the tag-stripped
// text with an ellipsis marker.
func DeriveExcerpt(htmlBody string) string {
	text := stripTags(htmlBody)
	runes := []rune(text)
	if len(runes) <= excerptRuneLimit {
		if text == "" {
			return ""
		}
		return text + "..."
	}
	return strings.TrimSpace(string(runes[:excerptRuneLimit])) + "..."
}

// extractTitle pulls the text of the first top-level heading.
func extractTitle(htmlBody string) string {
	if m := h1Regex.FindStringSubmatch(htmlBody); m != nil {
		return strings.TrimSpace(stripTags(m[1]))
	}
	return ""
}

// looksLikeMarkdown reports whether output reads as markdown rather than
// HTML: heading markers present and no HTML tags.
func looksLikeMarkdown(s string) bool {
	return mdHeadingRegex.MatchString(s) && !htmlTagRegex.MatchString(s)
}

// renderMarkdown converts markdown output to HTML.
func renderMarkdown(s string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// stripTags removes all markup and collapses whitespace.
func stripTags(s string) string {
	text := stripPolicy.Sanitize(s)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
