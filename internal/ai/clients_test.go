// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "<h1>Hello</h1>"},
					{"text": "<p>World</p>"},
				}}},
			},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient(NewSingleKeyRing("test-key")).WithBaseURL(srv.URL)
	text, err := client.GenerateText(context.Background(), "write something")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "<h1>Hello</h1><p>World</p>" {
		t.Errorf("text = %q", text)
	}
}

func TestGeminiGenerateImage(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "here is your image"},
					{"inlineData": map[string]string{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(pngBytes),
					}},
				}}},
			},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient(NewSingleKeyRing("k")).WithBaseURL(srv.URL)
	img, err := client.GenerateImage(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q", img.MimeType)
	}
	if string(img.Data) != string(pngBytes) {
		t.Error("image bytes mismatch")
	}
}

func TestGeminiProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(NewSingleKeyRing("k")).WithBaseURL(srv.URL)
	_, err := client.GenerateText(context.Background(), "p")
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", provErr.StatusCode)
	}
	if provErr.Provider != ProviderGemini {
		t.Errorf("Provider = %q", provErr.Provider)
	}
}

func TestGeminiNoImageInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "sorry, text only"},
				}}},
			},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient(NewSingleKeyRing("k")).WithBaseURL(srv.URL)
	_, err := client.GenerateImage(context.Background(), "a cat")
	if !errors.Is(err, ErrNoImageReturned) {
		t.Errorf("err = %v, want ErrNoImageReturned", err)
	}
}

func TestGeminiKeyRotationAcrossCalls(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("x-goog-api-key"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient(NewKeyRing([]string{"k1", "k2"})).WithBaseURL(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.GenerateText(context.Background(), "p"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	want := []string{"k1", "k2", "k1"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("key order = %v, want %v", seen, want)
		}
	}
}

func TestOpenAIGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o" {
			t.Errorf("model = %q", req.Model)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "<p>article</p>"}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient(NewSingleKeyRing("sk-test")).WithBaseURL(srv.URL)
	text, err := client.GenerateText(context.Background(), "write")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "<p>article</p>" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIGenerateImageBase64(t *testing.T) {
	imgBytes := []byte("fake-png-data")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["response_format"] != "b64_json" {
			t.Errorf("response_format = %v, want b64_json for dall-e-3", req["response_format"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"b64_json": base64.StdEncoding.EncodeToString(imgBytes)},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient(NewSingleKeyRing("sk")).WithBaseURL(srv.URL)
	img, err := client.GenerateImage(context.Background(), "a dog")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Data) != string(imgBytes) {
		t.Error("image bytes mismatch")
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q", img.MimeType)
	}
}

func TestOpenAIGenerateImageViaURL(t *testing.T) {
	imgBytes := []byte("remote-image-bytes")
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/files/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imgBytes)
	})
	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": srv.URL + "/files/img.png"}},
		})
	})

	client := NewOpenAIClient(NewSingleKeyRing("sk")).
		WithBaseURL(srv.URL).
		WithModels("", "gpt-image-1")
	img, err := client.GenerateImage(context.Background(), "a dog")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Data) != string(imgBytes) {
		t.Error("downloaded bytes mismatch")
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := NewOpenAIClient(NewSingleKeyRing("sk")).WithBaseURL(srv.URL)
	_, err := client.GenerateText(context.Background(), "p")
	if !errors.Is(err, ErrEmptyGeneration) {
		t.Errorf("err = %v, want ErrEmptyGeneration", err)
	}
}

func TestNoKeyConfigured(t *testing.T) {
	client := NewOpenAIClient(NewKeyRing(nil))
	if _, err := client.GenerateText(context.Background(), "p"); err == nil {
		t.Error("expected error with no keys")
	}
}
