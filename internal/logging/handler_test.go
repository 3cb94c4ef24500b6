package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/store"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "pressflow-logging-test-*.db")
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

	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}

	return db, cleanup
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func lastActivityEntry(t *testing.T, db *sql.DB) model.ActivityLog {
	t.Helper()
	entries, err := store.New(db).ListRecentActivity(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentActivity: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no activity entry recorded")
	}
	return entries[0]
}

func TestActivityLogHandler_ErrorLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewActivityLogHandler(discardHandler{}, db))
	logger.Error("publish failed", "reason", "timeout")

	entry := lastActivityEntry(t, db)
	if entry.Action != model.ActionSystemError {
		t.Errorf("Action = %q, want %q", entry.Action, model.ActionSystemError)
	}
	if entry.Status != model.ActivityStatusError {
		t.Errorf("Status = %q", entry.Status)
	}
	if !strings.Contains(entry.Details, "publish failed") {
		t.Errorf("Details = %q, want message included", entry.Details)
	}
	if !strings.Contains(entry.Details, `"reason":"timeout"`) {
		t.Errorf("Details = %q, want attr included", entry.Details)
	}
}

func TestActivityLogHandler_WarnLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewActivityLogHandler(discardHandler{}, db))
	logger.Warn("scheduler skipped a tick")

	entry := lastActivityEntry(t, db)
	if entry.Action != model.ActionSystemWarning {
		t.Errorf("Action = %q, want %q", entry.Action, model.ActionSystemWarning)
	}
	if entry.Status != model.ActivityStatusSuccess {
		t.Errorf("Status = %q", entry.Status)
	}
}

func TestActivityLogHandler_InfoNotRecorded(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewActivityLogHandler(discardHandler{}, db))
	logger.Info("routine message")

	entries, err := store.New(db).ListRecentActivity(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentActivity: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("info log should not be recorded, got %d entries", len(entries))
	}
}

func TestActivityLogHandler_ClientIDAttr(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	queries := store.New(db)
	client, err := queries.CreateClient(context.Background(), store.CreateClientParams{
		Name:         "Acme",
		WordPressURL: "https://acme.example.com",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	logger := slog.New(NewActivityLogHandler(discardHandler{}, db))
	logger.Error("connection refused", "client_id", client.ID)

	entry := lastActivityEntry(t, db)
	if !entry.ClientID.Valid || entry.ClientID.Int64 != client.ID {
		t.Errorf("ClientID = %+v, want %d", entry.ClientID, client.ID)
	}
	if strings.Contains(entry.Details, "client_id") {
		t.Errorf("client_id should not be duplicated in details: %q", entry.Details)
	}
}

func TestActivityLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewActivityLogHandlerWithLevel(discardHandler{}, db, slog.LevelError))
	logger.Warn("below threshold")

	entries, err := store.New(db).ListRecentActivity(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentActivity: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("warn below custom threshold should not be recorded, got %d", len(entries))
	}
}
