// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the business operations behind the API:
// content generation, image materialization, the publish lifecycle and
// client site management.
package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle rule violations.
var (
	// ErrInvalidSchedule is returned when the requested publish time is
	// not strictly in the future.
	ErrInvalidSchedule = errors.New("scheduled time must be in the future")

	// ErrNotScheduled is returned when cancelling a schedule on a
	// content record that is not in scheduled status.
	ErrNotScheduled = errors.New("content is not scheduled")
)

// ValidationError rejects a request whose inputs or state preconditions
// don't hold. Maps to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing resource. Maps to HTTP 404.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
