// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import "sync"

// KeyRing hands out API keys round-robin. It replaces ad hoc global
// rotation state: construct one ring per provider pool and pass it into
// the client that needs it.
type KeyRing struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyRing creates a ring over the given keys. Empty keys are dropped.
func NewKeyRing(keys []string) *KeyRing {
	ring := &KeyRing{}
	for _, k := range keys {
		if k != "" {
			ring.keys = append(ring.keys, k)
		}
	}
	return ring
}

// NewSingleKeyRing creates a ring holding exactly one key, for per-client
// credentials that take precedence over the shared pool.
func NewSingleKeyRing(key string) *KeyRing {
	return NewKeyRing([]string{key})
}

// Next returns the next key in rotation, or "" when the ring is empty.
func (r *KeyRing) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return ""
	}
	key := r.keys[r.next]
	r.next = (r.next + 1) % len(r.keys)
	return key
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
