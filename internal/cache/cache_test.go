package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()

	if _, err := c.Get(context.Background(), "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired key err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheValueIsolation(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	src := []byte("original")
	_ = c.Set(ctx, "k", src, 0)
	src[0] = 'X'

	got, _ := c.Get(ctx, "k")
	if string(got) != "original" {
		t.Error("stored value mutated through caller slice")
	}
	got[0] = 'Y'

	again, _ := c.Get(ctx, "k")
	if string(again) != "original" {
		t.Error("stored value mutated through returned slice")
	}
}

func TestMemoryCacheClearAndClose(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if has, _ := c.Has(ctx, "a"); has {
		t.Error("key survived Clear")
	}

	_ = c.Close()
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("closed cache err = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCacheStats(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", stats.HitRate)
	}

	c.ResetStats()
	if got := c.Stats(); got.Hits != 0 || got.Misses != 0 {
		t.Errorf("stats after reset = %+v", got)
	}
}

func TestFactoryDefaultsToMemory(t *testing.T) {
	c, err := New(Options{DefaultTTL: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("backend = %T, want *MemoryCache", c)
	}
}

func TestRedisCacheRequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisCacheOptions{}); err == nil {
		t.Error("expected error without URL")
	}
}

type statsPayload struct {
	Total int `json:"total"`
}

func TestTypedCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	typed := NewTypedCache[statsPayload](c, time.Minute)
	ctx := context.Background()

	if _, ok := typed.Get(ctx, "stats"); ok {
		t.Error("unexpected hit on empty cache")
	}

	if err := typed.Set(ctx, "stats", &statsPayload{Total: 7}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := typed.Get(ctx, "stats")
	if !ok || got.Total != 7 {
		t.Errorf("Get = %+v, ok=%v", got, ok)
	}
}

func TestTypedCacheGetOrSet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	typed := NewTypedCache[statsPayload](c, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func() (*statsPayload, error) {
		calls++
		return &statsPayload{Total: 42}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := typed.GetOrSet(ctx, "stats", compute)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if got.Total != 42 {
			t.Errorf("Total = %d", got.Total)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}
