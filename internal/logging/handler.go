// Package logging provides a custom slog handler that integrates with
// the activity log. It forwards logs at WARN level and above to the
// database-backed audit trail.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/olegiv/pressflow/internal/model"
	"github.com/olegiv/pressflow/internal/store"
)

// ActivityLogHandler is a slog.Handler that wraps another handler and
// also writes WARN and ERROR level logs to the activity log table.
type ActivityLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level // Minimum level to forward to the activity log (default: WARN)
}

// NewActivityLogHandler creates a handler that wraps the given handler.
// Logs at WARN level and above are written to both the wrapped handler
// and the activity log.
func NewActivityLogHandler(inner slog.Handler, db *sql.DB) *ActivityLogHandler {
	return &ActivityLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// NewActivityLogHandlerWithLevel creates a handler with a custom minimum level.
func NewActivityLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *ActivityLogHandler {
	return &ActivityLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *ActivityLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ActivityLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToActivityLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *ActivityLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ActivityLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *ActivityLogHandler) WithGroup(name string) slog.Handler {
	return &ActivityLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// writeToActivityLog writes a log record to the audit trail. A
// background context is used so the entry lands even when the request
// context is already cancelled.
func (h *ActivityLogHandler) writeToActivityLog(r slog.Record) {
	action := model.ActionSystemWarning
	status := model.ActivityStatusSuccess
	if r.Level >= slog.LevelError {
		action = model.ActionSystemError
		status = model.ActivityStatusError
	}

	_, _ = h.queries.CreateActivityLog(context.Background(), store.CreateActivityLogParams{
		ClientID:  extractClientID(r),
		Action:    action,
		Details:   buildDetails(r),
		Status:    status,
		CreatedAt: r.Time,
	})
}

// extractClientID pulls a client_id attribute from the record when present.
func extractClientID(r slog.Record) sql.NullInt64 {
	var id sql.NullInt64
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "client_id" {
			if v, ok := a.Value.Any().(int64); ok {
				id = sql.NullInt64{Int64: v, Valid: true}
			}
			return false
		}
		return true
	})
	return id
}

// buildDetails collects the message and attributes into a JSON string.
func buildDetails(r slog.Record) string {
	var sb strings.Builder
	sb.WriteString(`{"message":"`)
	sb.WriteString(escapeJSON(r.Message))
	sb.WriteString(`"`)

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "client_id" {
			return true // Stored in its own column
		}
		sb.WriteString(`,"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
