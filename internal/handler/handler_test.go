// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/pressflow/internal/ai"
	"github.com/olegiv/pressflow/internal/config"
	"github.com/olegiv/pressflow/internal/secrets"
	"github.com/olegiv/pressflow/internal/service"
	"github.com/olegiv/pressflow/internal/store"
	"github.com/olegiv/pressflow/internal/wordpress"
)

const testAppSecret = "Handler-Test-Secret-0123456789abc!"

type fakeTextProvider struct {
	out string
	err error
}

func (f *fakeTextProvider) Name() string { return ai.ProviderGemini }
func (f *fakeTextProvider) GenerateText(context.Context, string) (string, error) {
	return f.out, f.err
}

type fakePublisher struct {
	postID int64
	status wordpress.ConnectionStatus
}

func (f *fakePublisher) TestConnection(context.Context) wordpress.ConnectionStatus {
	return f.status
}

func (f *fakePublisher) CreatePost(context.Context, wordpress.PostParams) (int64, error) {
	return f.postID, nil
}

func (f *fakePublisher) UploadMedia(context.Context, []byte, string, string, string) (int64, error) {
	return 1, nil
}

type testAPI struct {
	router    chi.Router
	svc       *service.Service
	text      *fakeTextProvider
	publisher *fakePublisher
	cfg       *config.Config
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	f, err := os.CreateTemp("", "pressflow-handler-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})

	sealer, err := secrets.New(testAppSecret)
	if err != nil {
		t.Fatalf("secrets.New: %v", err)
	}

	cfg := &config.Config{
		AppSecret:        testAppSecret,
		Env:              "development",
		TextProvider:     "gemini",
		ImageProvider:    "gemini",
		MaxImages:        5,
		TextTimeoutS:     5,
		ImageTimeoutS:    5,
		RemoteTimeoutS:   5,
		SimulatedPublish: true,
		SimulatedPostID:  999999,
	}

	api := &testAPI{
		text:      &fakeTextProvider{out: "<h1>Generated Title</h1><p>Generated body.</p>"},
		publisher: &fakePublisher{postID: 77, status: wordpress.ConnectionStatus{OK: true, Message: "connection successful"}},
		cfg:       cfg,
	}
	api.svc = service.New(service.Options{
		Queries: store.New(db),
		Config:  cfg,
		Sealer:  sealer,
		Text:    api.text,
		NewPublisher: func(_, _, _ string) service.Publisher {
			return api.publisher
		},
	})

	r := chi.NewRouter()
	New(api.svc, db, nil).Routes(r)
	api.router = r
	return api
}

// do runs one request through the router and returns the recorder.
func (api *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the standard response envelope.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope: %v; body: %s", err, rec.Body.String())
	}
	return env
}

func createTestClient(t *testing.T, api *testAPI) int64 {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/api/clients", map[string]any{
		"name":               "Acme",
		"wordpress_url":      "https://acme.example.com",
		"wordpress_username": "admin",
		"wordpress_password": "abcd efgh",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var client ClientResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &client); err != nil {
		t.Fatalf("decoding client: %v", err)
	}
	return client.ID
}

func generateTestContent(t *testing.T, api *testAPI, clientID int64) ContentResponse {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/api/contents/generate", map[string]any{
		"client_id": clientID,
		"keywords":  []string{"coffee", "seoul"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var content ContentResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &content); err != nil {
		t.Fatalf("decoding content: %v", err)
	}
	return content
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("status = %q", status.Status)
	}
	if status.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %+v", status.Checks["database"])
	}
}

func TestClientLifecycle(t *testing.T) {
	api := newTestAPI(t)
	id := createTestClient(t, api)

	rec := api.do(t, http.MethodGet, fmt.Sprintf("/api/clients/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var client ClientResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &client); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if client.Name != "Acme" || !client.HasCredentials {
		t.Errorf("client = %+v", client)
	}
	if strings.Contains(rec.Body.String(), "abcd efgh") {
		t.Error("password leaked into the response")
	}

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/api/clients/%d", id), map[string]any{
		"name":               "Acme Renamed",
		"wordpress_url":      "https://acme.example.com",
		"wordpress_username": "admin",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/clients", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var clients []ClientResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &clients); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(clients) != 1 || clients[0].Name != "Acme Renamed" {
		t.Errorf("clients = %+v", clients)
	}

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/api/clients/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/clients/%d", id), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestCreateClientValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/clients", map[string]any{
		"wordpress_url": "https://acme.example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == "" {
		t.Errorf("envelope = %+v", env)
	}

	rec = api.do(t, http.MethodPost, "/api/clients", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d", rec.Code)
	}
}

func TestTestConnectionEndpoint(t *testing.T) {
	api := newTestAPI(t)
	id := createTestClient(t, api)

	rec := api.do(t, http.MethodPost, fmt.Sprintf("/api/clients/%d/test-connection", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var status wordpress.ConnectionStatus
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &status); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !status.OK {
		t.Errorf("status = %+v", status)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)

	content := generateTestContent(t, api, clientID)
	if content.Status != "draft" {
		t.Errorf("status = %q", content.Status)
	}
	if content.Title != "Generated Title" {
		t.Errorf("title = %q", content.Title)
	}
	if len(content.Keywords) != 2 {
		t.Errorf("keywords = %v", content.Keywords)
	}
}

func TestGenerateEndpointErrors(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)

	rec := api.do(t, http.MethodPost, "/api/contents/generate", map[string]any{
		"client_id": clientID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no keywords status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/contents/generate", map[string]any{
		"client_id": 9999,
		"keywords":  []string{"kw"},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown client status = %d", rec.Code)
	}

	api.text.err = &ai.ProviderError{Provider: ai.ProviderGemini, StatusCode: 429, Body: "quota"}
	rec = api.do(t, http.MethodPost, "/api/contents/generate", map[string]any{
		"client_id": clientID,
		"keywords":  []string{"kw"},
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("provider failure status = %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestScheduleAndPublishEndpoints(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	content := generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/schedule", content.ID),
		map[string]any{"scheduled_at": "2030-01-02T15:04:05Z"})
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/schedule", content.ID),
		map[string]any{"scheduled_at": "2001-01-01T00:00:00Z"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("past schedule status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/cancel-schedule", content.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body: %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/cancel-schedule", content.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("double cancel status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/publish", content.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var published ContentResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &published); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if published.Status != "published" || published.WordPressPostID == nil || *published.WordPressPostID != 77 {
		t.Errorf("published = %+v", published)
	}
}

func TestSimulatedPublishEndpoint(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	content := generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/publish", content.ID),
		map[string]any{"simulate": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var published ContentResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &published); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if published.WordPressPostID == nil || *published.WordPressPostID != api.cfg.SimulatedPostID {
		t.Errorf("published = %+v", published)
	}

	api.cfg.SimulatedPublish = false
	other := generateTestContent(t, api, clientID)
	rec = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/contents/%d/publish", other.ID),
		map[string]any{"simulate": true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("disabled simulation status = %d", rec.Code)
	}
}

func TestListContentsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	_ = generateTestContent(t, api, clientID)
	_ = generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodGet, "/api/contents?status=draft", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct {
		Items []ContentResponse `json:"items"`
		Total int64             `json:"total"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &page); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Errorf("page = %+v", page)
	}

	rec = api.do(t, http.MethodGet, "/api/contents?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus status filter = %d", rec.Code)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	content := generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodGet,
		fmt.Sprintf("/api/contents/%d/download?format=txt", content.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if strings.Contains(rec.Body.String(), "<p>") {
		t.Errorf("txt download contains markup: %q", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet,
		fmt.Sprintf("/api/contents/%d/download", content.ID), nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = api.do(t, http.MethodGet,
		fmt.Sprintf("/api/contents/%d/download?format=pdf", content.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad format status = %d", rec.Code)
	}
}

func TestContentImageEndpoints(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	content := generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodGet,
		fmt.Sprintf("/api/contents/%d/images", content.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list images status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet,
		fmt.Sprintf("/api/contents/%d/images/12345", content.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing image status = %d", rec.Code)
	}
}

func TestActivityEndpoints(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	_ = generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodGet, "/api/activity-logs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var logs []ActivityResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &logs); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(logs) == 0 {
		t.Error("no activity entries after client creation and generation")
	}

	rec = api.do(t, http.MethodGet, "/api/activity-logs/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, "/api/activity-logs?older_than_days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("purge status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodDelete, "/api/activity-logs", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("purge without cutoff status = %d", rec.Code)
	}
}

func TestDashboardStatsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	clientID := createTestClient(t, api)
	_ = generateTestContent(t, api, clientID)

	rec := api.do(t, http.MethodGet, "/api/dashboard/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats DashboardStatsResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &stats); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if stats.TotalContents != 1 {
		t.Errorf("TotalContents = %d", stats.TotalContents)
	}
	if len(stats.ByClient) != 1 {
		t.Errorf("ByClient = %+v", stats.ByClient)
	}
}

func TestInvalidIDParam(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{
		"/api/contents/abc",
		"/api/clients/0",
		"/api/contents/-1/publish",
	} {
		method := http.MethodGet
		if strings.HasSuffix(path, "/publish") {
			method = http.MethodPost
		}
		rec := api.do(t, method, path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s status = %d", method, path, rec.Code)
		}
	}
}
