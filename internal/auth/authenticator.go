// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Identity is the authenticated result handed to downstream handlers.
type Identity struct {
	UserID    string
	SessionID string
	IsActive  bool
}

// Authenticator validates an inbound token against the credential store.
// It runs on every protected request.
type Authenticator struct {
	codec    *TokenCodec
	sessions SessionRepository
	accounts AccountRepository
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(codec *TokenCodec, sessions SessionRepository, accounts AccountRepository) (*Authenticator, error) {
	if codec == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token codec is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("session repository is required")
	}
	if accounts == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("account repository is required")
	}
	return &Authenticator{codec: codec, sessions: sessions, accounts: accounts}, nil
}

// Authenticate establishes the identity behind a token, or fails with one of
// the denial kinds in errors.go. An identity is authenticated only when the
// token signature is valid, the token is unexpired, the referenced session
// exists and is unexpired, and the bound account exists and is verified —
// all simultaneously. Store faults surface as non-denial errors so that a
// transient outage never logs a legitimate user out.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, oops.Code("AUTH_NO_TOKEN").Wrap(ErrMissingCredential)
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, oops.Code("AUTH_TOKEN_INCOMPLETE").Wrap(ErrIncompleteCredential)
	}

	// The session row is checked independently of the token's own expiry
	// claim: a session revoked server-side must win over a still-valid token.
	session, err := a.sessions.GetActive(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_SESSION_INVALID").Wrap(ErrSessionInvalid)
		}
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "get active session").
			Wrap(err)
	}

	status, err := a.accounts.GetStatus(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_ACCOUNT_MISSING").Wrap(ErrAccountNotVerified)
		}
		return nil, oops.Code("AUTH_ACCOUNT_LOOKUP_FAILED").
			With("operation", "get account status").
			With("user_id", session.UserID).
			Wrap(err)
	}
	if !status.Verified {
		return nil, oops.Code("AUTH_ACCOUNT_UNVERIFIED").
			With("user_id", session.UserID).
			Wrap(ErrAccountNotVerified)
	}

	return &Identity{
		UserID:    session.UserID,
		SessionID: session.ID,
		IsActive:  status.Active,
	}, nil
}
