// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session is the server-side record that is the authority on whether a
// token's claimed identity is still valid. It is never mutated after
// creation; it expires passively when ExpiresAt passes.
type Session struct {
	ID             string
	UserID         string
	UserAgent      string
	IPAddress      string
	ExpiresAt      time.Time
	LastActivityAt time.Time
}

// NewSession creates a validated Session with a fresh ULID identifier.
// UserAgent and IPAddress are optional audit metadata and may be empty.
func NewSession(userID, userAgent, ipAddress string, expiresAt time.Time) (*Session, error) {
	if userID == "" {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user id cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	return &Session{
		ID:             ulid.Make().String(),
		UserID:         userID,
		UserAgent:      userAgent,
		IPAddress:      ipAddress,
		ExpiresAt:      expiresAt,
		LastActivityAt: time.Now(),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given time.
// Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetActive retrieves a session by id only if its expiry is still in the
	// future, evaluated against the store's clock. Expired or unknown
	// sessions return ErrNotFound.
	GetActive(ctx context.Context, id string) (*Session, error)

	// Delete removes a session, revoking it before its natural expiry.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all expired sessions and returns the count of
	// deleted records. Storage hygiene only; correctness never depends on it.
	DeleteExpired(ctx context.Context) (int64, error)
}
