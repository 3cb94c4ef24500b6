// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/store"
	"github.com/olegiv/pressflow/internal/util"
	"github.com/olegiv/pressflow/internal/wordpress"
)

// ClientParams are the writable fields of a client site registration.
// Secrets arrive in plaintext and are sealed before storage; on update,
// empty secret fields keep the stored values.
type ClientParams struct {
	Name              string
	Description       string
	WordPressURL      string
	WordPressUsername string
	WordPressPassword string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	SystemPrompt      string
	IsActive          bool
}

// CreateClient registers a new client site. When full WordPress
// credentials are supplied the connection is verified before the row is
// written.
func (s *Service) CreateClient(ctx context.Context, p ClientParams) (model.Client, error) {
	if err := s.validateClientParams(&p); err != nil {
		return model.Client{}, err
	}

	if err := s.verifyConnection(ctx, p.WordPressURL, p.WordPressUsername, p.WordPressPassword); err != nil {
		return model.Client{}, err
	}

	sealed, err := s.sealClientSecrets(&p)
	if err != nil {
		return model.Client{}, err
	}

	client, err := s.queries.CreateClient(ctx, store.CreateClientParams{
		Name:              p.Name,
		Description:       util.NullStringFromValue(p.Description),
		WordPressURL:      p.WordPressURL,
		WordPressUsername: p.WordPressUsername,
		WordPressPassword: sealed.password,
		GeminiAPIKey:      sealed.geminiKey,
		OpenAIAPIKey:      sealed.openaiKey,
		SystemPrompt:      util.NullStringFromValue(p.SystemPrompt),
		IsActive:          p.IsActive,
	})
	if err != nil {
		return model.Client{}, err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: client.ID, Valid: true},
		model.ActionClientCreated,
		fmt.Sprintf(`{"client_id":%d,"name":%q}`, client.ID, client.Name),
		model.ActivityStatusSuccess)

	return client, nil
}

// UpdateClient rewrites a client registration. Empty secret fields keep
// the currently stored (sealed) values.
func (s *Service) UpdateClient(ctx context.Context, id int64, p ClientParams) (model.Client, error) {
	existing, err := s.GetClient(ctx, id)
	if err != nil {
		return model.Client{}, err
	}

	if err := s.validateClientParams(&p); err != nil {
		return model.Client{}, err
	}

	sealed, err := s.sealClientSecrets(&p)
	if err != nil {
		return model.Client{}, err
	}
	if p.WordPressPassword == "" {
		sealed.password = existing.WordPressPassword
	}
	if p.GeminiAPIKey == "" {
		sealed.geminiKey = existing.GeminiAPIKey
	}
	if p.OpenAIAPIKey == "" {
		sealed.openaiKey = existing.OpenAIAPIKey
	}

	// Verify with the effective credentials, old or new.
	password := p.WordPressPassword
	if password == "" && sealed.password != "" {
		if opened, err := s.sealer.Open(sealed.password); err == nil {
			password = opened
		}
	}
	if err := s.verifyConnection(ctx, p.WordPressURL, p.WordPressUsername, password); err != nil {
		return model.Client{}, err
	}

	client, err := s.queries.UpdateClient(ctx, store.UpdateClientParams{
		ID:                id,
		Name:              p.Name,
		Description:       util.NullStringFromValue(p.Description),
		WordPressURL:      p.WordPressURL,
		WordPressUsername: p.WordPressUsername,
		WordPressPassword: sealed.password,
		GeminiAPIKey:      sealed.geminiKey,
		OpenAIAPIKey:      sealed.openaiKey,
		SystemPrompt:      util.NullStringFromValue(p.SystemPrompt),
		IsActive:          p.IsActive,
	})
	if err != nil {
		return model.Client{}, err
	}

	s.logActivity(ctx, sql.NullInt64{Int64: id, Valid: true},
		model.ActionClientUpdated,
		fmt.Sprintf(`{"client_id":%d,"name":%q}`, id, client.Name),
		model.ActivityStatusSuccess)

	return client, nil
}

// GetClient loads one client.
func (s *Service) GetClient(ctx context.Context, id int64) (model.Client, error) {
	client, err := s.queries.GetClient(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Client{}, &NotFoundError{Resource: "client", ID: id}
		}
		return model.Client{}, fmt.Errorf("loading client %d: %w", id, err)
	}
	return client, nil
}

// ListClients returns all registered clients.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.queries.ListClients(ctx)
}

// DeleteClient removes a client and, through the schema, all its
// contents and images. Audit entries survive with a cleared reference.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteClient(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Resource: "client", ID: id}
		}
		return err
	}

	s.logActivity(ctx, sql.NullInt64{},
		model.ActionClientDeleted,
		fmt.Sprintf(`{"client_id":%d,"name":%q}`, id, client.Name),
		model.ActivityStatusSuccess)

	return nil
}

// TestClientConnection probes the stored WordPress credentials of a client.
func (s *Service) TestClientConnection(ctx context.Context, id int64) (wordpress.ConnectionStatus, error) {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return wordpress.ConnectionStatus{}, err
	}
	if !client.HasWordPressCredentials() {
		return wordpress.ConnectionStatus{}, Validationf("client %d has no WordPress credentials", id)
	}

	password, err := s.sealer.Open(client.WordPressPassword)
	if err != nil {
		return wordpress.ConnectionStatus{}, fmt.Errorf("opening client %d credentials: %w", id, err)
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout())
	defer cancel()

	publisher := s.newPublisher(client.WordPressURL, client.WordPressUsername, password)
	return publisher.TestConnection(remoteCtx), nil
}

// ClientStats aggregates content counts for one client.
func (s *Service) ClientStats(ctx context.Context, id int64) (model.ClientStats, error) {
	if _, err := s.GetClient(ctx, id); err != nil {
		return model.ClientStats{}, err
	}
	return s.queries.GetClientStats(ctx, id)
}

type sealedSecrets struct {
	password  string
	geminiKey sql.NullString
	openaiKey sql.NullString
}

// sealClientSecrets seals the plaintext secrets for storage. Empty
// inputs seal to empty outputs.
func (s *Service) sealClientSecrets(p *ClientParams) (sealedSecrets, error) {
	var out sealedSecrets

	if p.WordPressPassword != "" {
		sealed, err := s.sealer.Seal(p.WordPressPassword)
		if err != nil {
			return out, fmt.Errorf("sealing password: %w", err)
		}
		out.password = sealed
	}
	if p.GeminiAPIKey != "" {
		sealed, err := s.sealer.Seal(p.GeminiAPIKey)
		if err != nil {
			return out, fmt.Errorf("sealing gemini key: %w", err)
		}
		out.geminiKey = util.NullStringFromValue(sealed)
	}
	if p.OpenAIAPIKey != "" {
		sealed, err := s.sealer.Seal(p.OpenAIAPIKey)
		if err != nil {
			return out, fmt.Errorf("sealing openai key: %w", err)
		}
		out.openaiKey = util.NullStringFromValue(sealed)
	}
	return out, nil
}

// verifyConnection probes the site when full credentials are present.
func (s *Service) verifyConnection(ctx context.Context, siteURL, username, password string) error {
	if siteURL == "" || username == "" || password == "" {
		return nil
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout())
	defer cancel()

	status := s.newPublisher(siteURL, username, password).TestConnection(remoteCtx)
	if !status.OK {
		return Validationf("WordPress connection failed: %s", status.Message)
	}
	return nil
}

func (s *Service) validateClientParams(p *ClientParams) error {
	p.Name = strings.TrimSpace(p.Name)
	p.WordPressURL = strings.TrimRight(strings.TrimSpace(p.WordPressURL), "/")
	p.WordPressUsername = strings.TrimSpace(p.WordPressUsername)

	if p.Name == "" {
		return Validationf("name is required")
	}
	if p.WordPressURL == "" {
		return Validationf("wordpress_url is required")
	}
	if err := util.ValidateRemoteURL(p.WordPressURL, s.cfg.IsDevelopment()); err != nil {
		return Validationf("wordpress_url: %v", err)
	}
	return nil
}
