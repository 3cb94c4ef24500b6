package cache

import "time"

// Options selects and configures the cache backend.
type Options struct {
	// RedisURL selects the Redis backend when non-empty
	// (e.g. redis://localhost:6379/0). Empty means in-memory.
	RedisURL string

	// Prefix is the key prefix for the Redis backend.
	Prefix string

	// DefaultTTL is the default TTL for cache entries.
	DefaultTTL time.Duration
}

// New creates a cache from the options: Redis when a URL is configured,
// otherwise the in-process memory cache.
func New(opts Options) (Cacher, error) {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Minute
	}

	if opts.RedisURL != "" {
		redisOpts := DefaultRedisCacheOptions()
		redisOpts.URL = opts.RedisURL
		redisOpts.DefaultTTL = opts.DefaultTTL
		if opts.Prefix != "" {
			redisOpts.Prefix = opts.Prefix
		}
		return NewRedisCache(redisOpts)
	}

	return NewMemoryCache(opts.DefaultTTL), nil
}
