// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

const validSecret = "A-Perfectly-Fine-Secret-0123456789!"

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("PRESSFLOW_APP_SECRET", validSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.TextProvider != "gemini" || cfg.ImageProvider != "gemini" {
		t.Errorf("default providers: %s/%s", cfg.TextProvider, cfg.ImageProvider)
	}
	if cfg.MaxImages != 5 {
		t.Errorf("MaxImages = %d, want 5", cfg.MaxImages)
	}
	if cfg.SimulatedPublish {
		t.Error("simulated publish must default to off")
	}
	if cfg.SchedulerEnabled {
		t.Error("scheduler must default to off")
	}
	if cfg.UseRedisCache() {
		t.Error("redis cache should be off without a URL")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	os.Clearenv()
	t.Setenv("PRESSFLOW_APP_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestLoadRejectsKnownWeakSecret(t *testing.T) {
	os.Clearenv()
	t.Setenv("PRESSFLOW_APP_SECRET", "change-me-to-32-byte-secret-key!")
	if _, err := Load(); err == nil {
		t.Error("expected error for known default secret")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	os.Clearenv()
	t.Setenv("PRESSFLOW_APP_SECRET", validSecret)
	t.Setenv("PRESSFLOW_TEXT_PROVIDER", "llama")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown text provider")
	}
}

func TestLoadParsesKeyPools(t *testing.T) {
	os.Clearenv()
	t.Setenv("PRESSFLOW_APP_SECRET", validSecret)
	t.Setenv("PRESSFLOW_GEMINI_API_KEYS", "key-a,key-b,key-c")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.GeminiAPIKeys) != 3 || cfg.GeminiAPIKeys[1] != "key-b" {
		t.Errorf("GeminiAPIKeys = %v", cfg.GeminiAPIKeys)
	}
}

func TestTimeoutHelpers(t *testing.T) {
	os.Clearenv()
	t.Setenv("PRESSFLOW_APP_SECRET", validSecret)
	t.Setenv("PRESSFLOW_REMOTE_TIMEOUT", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RemoteTimeout().Seconds() != 15 {
		t.Errorf("RemoteTimeout = %v", cfg.RemoteTimeout())
	}
	if cfg.TextTimeout().Seconds() != 120 {
		t.Errorf("TextTimeout = %v", cfg.TextTimeout())
	}
}
