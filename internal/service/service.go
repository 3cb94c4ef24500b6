// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/pressflow/internal/ai"
	"github.com/olegiv/pressflow/internal/cache"
	"github.com/olegiv/pressflow/internal/config"
	"github.com/olegiv/pressflow/internal/imaging"
	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/secrets"
	"github.com/olegiv/pressflow/internal/store"
	"github.com/olegiv/pressflow/internal/wordpress"
)

// Publisher is the slice of the WordPress client the lifecycle needs.
// Satisfied by *wordpress.Client; tests substitute fakes.
type Publisher interface {
	TestConnection(ctx context.Context) wordpress.ConnectionStatus
	CreatePost(ctx context.Context, p wordpress.PostParams) (int64, error)
	UploadMedia(ctx context.Context, data []byte, filename, mimeType, altText string) (int64, error)
}

// PublisherFactory builds a Publisher for one site's opened credentials.
type PublisherFactory func(siteURL, username, appPassword string) Publisher

// Service carries the shared dependencies of all business operations.
type Service struct {
	queries *store.Queries
	cfg     *config.Config
	sealer  *secrets.Sealer
	logger  *slog.Logger

	text  ai.TextProvider
	image ai.ImageProvider

	// newTextProvider/newImageProvider build one-off providers for
	// clients carrying their own API key.
	newTextProvider  func(name string, keys *ai.KeyRing) ai.TextProvider
	newImageProvider func(name string, keys *ai.KeyRing) ai.ImageProvider

	processor    *imaging.Processor
	newPublisher PublisherFactory
	statsCache   *cache.TypedCache[DashboardStats]
}

// Options configures a Service. Queries, Config and Sealer are
// required; everything else has a production default.
type Options struct {
	Queries *store.Queries
	Config  *config.Config
	Sealer  *secrets.Sealer
	Logger  *slog.Logger

	Text  ai.TextProvider
	Image ai.ImageProvider

	Processor    *imaging.Processor
	NewPublisher PublisherFactory
	Cache        cache.Cacher
}

// New wires a Service from its options.
func New(opts Options) *Service {
	s := &Service{
		queries:   opts.Queries,
		cfg:       opts.Config,
		sealer:    opts.Sealer,
		logger:    opts.Logger,
		text:      opts.Text,
		image:     opts.Image,
		processor: opts.Processor,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.processor == nil {
		s.processor = imaging.NewProcessor()
	}
	s.newPublisher = opts.NewPublisher
	if s.newPublisher == nil {
		timeout := 30 * time.Second
		if s.cfg != nil {
			timeout = s.cfg.RemoteTimeout()
		}
		s.newPublisher = func(siteURL, username, appPassword string) Publisher {
			return wordpress.NewClient(siteURL, username, appPassword, timeout)
		}
	}
	s.newTextProvider = func(name string, keys *ai.KeyRing) ai.TextProvider {
		if name == ai.ProviderOpenAI {
			return ai.NewOpenAIClient(keys)
		}
		return ai.NewGeminiClient(keys)
	}
	s.newImageProvider = func(name string, keys *ai.KeyRing) ai.ImageProvider {
		if name == ai.ProviderOpenAI {
			return ai.NewOpenAIClient(keys)
		}
		return ai.NewGeminiClient(keys)
	}
	if opts.Cache != nil {
		ttl := time.Minute
		if s.cfg != nil && s.cfg.CacheTTL > 0 {
			ttl = time.Duration(s.cfg.CacheTTL) * time.Second
		}
		s.statsCache = cache.NewTypedCache[DashboardStats](opts.Cache, ttl)
	}
	return s
}

// textProviderFor returns the provider to use for a client: a dedicated
// one when the client carries its own key for the configured provider,
// otherwise the shared pool-backed provider.
func (s *Service) textProviderFor(client *model.Client) ai.TextProvider {
	if key := s.clientProviderKey(s.cfg.TextProvider, client); key != "" {
		return s.newTextProvider(s.cfg.TextProvider, ai.NewSingleKeyRing(key))
	}
	return s.text
}

// imageProviderFor mirrors textProviderFor for image generation.
func (s *Service) imageProviderFor(client *model.Client) ai.ImageProvider {
	if key := s.clientProviderKey(s.cfg.ImageProvider, client); key != "" {
		return s.newImageProvider(s.cfg.ImageProvider, ai.NewSingleKeyRing(key))
	}
	return s.image
}

// clientProviderKey opens the client's sealed key for the given
// provider, returning "" when absent or unreadable.
func (s *Service) clientProviderKey(provider string, client *model.Client) string {
	var sealed sql.NullString
	switch provider {
	case ai.ProviderGemini:
		sealed = client.GeminiAPIKey
	case ai.ProviderOpenAI:
		sealed = client.OpenAIAPIKey
	}
	if !sealed.Valid || sealed.String == "" {
		return ""
	}
	key, err := s.sealer.Open(sealed.String)
	if err != nil {
		s.logger.Warn("unreadable client API key, falling back to shared pool",
			"client_id", client.ID, "provider", provider)
		return ""
	}
	return key
}

// logActivity appends one audit row; failures are logged, never propagated.
func (s *Service) logActivity(ctx context.Context, clientID sql.NullInt64, action, details, status string) {
	_, err := s.queries.CreateActivityLog(ctx, store.CreateActivityLogParams{
		ClientID: clientID,
		Action:   action,
		Details:  details,
		Status:   status,
	})
	if err != nil {
		s.logger.Error("writing activity log", "action", action, "error", err)
	}
}
