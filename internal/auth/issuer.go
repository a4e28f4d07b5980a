// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// DefaultSessionTTL applies when no session duration is configured.
const DefaultSessionTTL = 4 * time.Hour

// RequestMetadata is optional client audit data recorded with a session.
type RequestMetadata struct {
	UserAgent string
	IPAddress string
}

// Issuer creates sessions and mints the tokens bound to them. It runs once
// per successful login or first-time email verification, never for failed
// credential checks.
type Issuer struct {
	codec    *TokenCodec
	sessions SessionRepository
	ttl      time.Duration
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewIssuer(codec *TokenCodec, sessions SessionRepository, ttl time.Duration) (*Issuer, error) {
	if codec == nil {
		return nil, oops.Code("ISSUER_NIL_DEPENDENCY").Errorf("token codec is required")
	}
	if sessions == nil {
		return nil, oops.Code("ISSUER_NIL_DEPENDENCY").Errorf("session repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Issuer{codec: codec, sessions: sessions, ttl: ttl}, nil
}

// TTL returns the configured session lifetime. The HTTP layer uses it to set
// the credential cookie's max age to the same window.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a fresh session for the user, persists it, and mints a token
// bound to it. The session's expiry and the token's expiry claim both derive
// from the same ttl within this one call, so the two clocks cannot diverge at
// issuance; they are checked independently thereafter.
func (i *Issuer) Issue(ctx context.Context, userID string, meta RequestMetadata) (string, *Session, error) {
	session, err := NewSession(userID, meta.UserAgent, meta.IPAddress, time.Now().Add(i.ttl))
	if err != nil {
		return "", nil, oops.Code("ISSUE_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := i.sessions.Create(ctx, session); err != nil {
		return "", nil, oops.Code("ISSUE_FAILED").
			With("operation", "persist session").
			With("user_id", userID).
			Wrap(err)
	}

	token, err := i.codec.Mint(session.ID, userID, i.ttl)
	if err != nil {
		return "", nil, oops.Code("ISSUE_FAILED").
			With("operation", "mint token").
			With("session_id", session.ID).
			Wrap(err)
	}

	return token, session, nil
}
