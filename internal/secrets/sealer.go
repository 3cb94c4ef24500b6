// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package secrets seals client credentials (WordPress application
// passwords, provider API keys) before they are written to the database,
// so a leaked database file does not leak credentials.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealedPrefix marks a sealed value and versions the format.
const sealedPrefix = "v1:"

// Sealer encrypts and decrypts short credential strings with
// XChaCha20-Poly1305 under a key derived from the application secret.
type Sealer struct {
	key [chacha20poly1305.KeySize]byte
}

// New derives a sealer key from the application secret.
func New(appSecret string) (*Sealer, error) {
	if appSecret == "" {
		return nil, fmt.Errorf("app secret is required")
	}
	s := &Sealer{key: sha256.Sum256([]byte(appSecret))}
	return s, nil
}

// Seal encrypts plaintext and returns a versioned, base64-encoded token.
// Empty input stays empty so optional credentials round-trip cleanly.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal. Unprefixed values are returned
// verbatim so databases created before sealing existed keep working.
func (s *Sealer) Open(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	if !strings.HasPrefix(token, sealedPrefix) {
		return token, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decoding sealed value: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("sealed value too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening sealed value: %w", err)
	}

	return string(plaintext), nil
}

// IsSealed reports whether a stored value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}
