// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestContentStatusIsValid(t *testing.T) {
	valid := []ContentStatus{ContentStatusDraft, ContentStatusScheduled, ContentStatusPublished, ContentStatusFailed}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ContentStatus("archived").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
	if ContentStatus("").IsValid() {
		t.Error("expected empty status to be invalid")
	}
}

func TestContentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    ContentStatus
		to      ContentStatus
		allowed bool
	}{
		{ContentStatusDraft, ContentStatusScheduled, true},
		{ContentStatusDraft, ContentStatusPublished, true},
		{ContentStatusDraft, ContentStatusFailed, true},
		{ContentStatusDraft, ContentStatusDraft, false},
		{ContentStatusScheduled, ContentStatusDraft, true}, // cancellation
		{ContentStatusScheduled, ContentStatusPublished, true},
		{ContentStatusScheduled, ContentStatusFailed, true},
		{ContentStatusPublished, ContentStatusDraft, false},
		{ContentStatusPublished, ContentStatusScheduled, false},
		{ContentStatusPublished, ContentStatusFailed, false},
		{ContentStatusFailed, ContentStatusPublished, true}, // manual republish
		{ContentStatusFailed, ContentStatusFailed, true},    // republish failed again
		{ContentStatusFailed, ContentStatusScheduled, false},
		{ContentStatusFailed, ContentStatusDraft, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestKeywordListRoundTrip(t *testing.T) {
	keywords := []string{"coffee", "seoul", "best cafes"}
	c := Content{Keywords: EncodeKeywords(keywords)}

	got := c.KeywordList()
	if len(got) != len(keywords) {
		t.Fatalf("expected %d keywords, got %d", len(keywords), len(got))
	}
	for i, kw := range keywords {
		if got[i] != kw {
			t.Errorf("keyword %d: got %q, want %q", i, got[i], kw)
		}
	}
}

func TestKeywordListEmpty(t *testing.T) {
	c := Content{}
	if got := c.KeywordList(); got != nil {
		t.Errorf("expected nil for empty keywords, got %v", got)
	}

	c.Keywords = "not json"
	if got := c.KeywordList(); got != nil {
		t.Errorf("expected nil for malformed keywords, got %v", got)
	}

	if EncodeKeywords(nil) != "[]" {
		t.Error("expected empty list to encode as []")
	}
}

func TestContentImageIsThumbnail(t *testing.T) {
	first := ContentImage{Position: 0}
	second := ContentImage{Position: 1}
	if !first.IsThumbnail() {
		t.Error("position 0 should be the thumbnail")
	}
	if second.IsThumbnail() {
		t.Error("position 1 should not be the thumbnail")
	}
}

func TestClientHasWordPressCredentials(t *testing.T) {
	c := Client{WordPressURL: "https://blog.example.com", WordPressUsername: "admin", WordPressPassword: "xxxx yyyy"}
	if !c.HasWordPressCredentials() {
		t.Error("expected credentials to be complete")
	}
	c.WordPressPassword = ""
	if c.HasWordPressCredentials() {
		t.Error("expected missing password to fail")
	}
}
