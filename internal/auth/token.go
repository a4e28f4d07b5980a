// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// MinSecretLength is the minimum accepted signing secret length in bytes.
const MinSecretLength = 32

// Claims is the token payload binding a session to a user.
type Claims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies signed identity assertions. The signing secret
// is injected at construction and never read from ambient state.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a TokenCodec with the given HS256 signing secret.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, oops.Code("TOKEN_SECRET_REQUIRED").Errorf("signing secret is required")
	}
	if len(secret) < MinSecretLength {
		return nil, oops.Code("TOKEN_SECRET_TOO_SHORT").
			With("min_bytes", MinSecretLength).
			Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	return &TokenCodec{secret: []byte(secret)}, nil
}

// Mint produces a signed token carrying the session and user identifiers with
// an expiry of now + ttl. A non-positive ttl mints an already-expired token.
func (c *TokenCodec) Mint(sessionID, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
// Expired tokens fail with ErrExpiredCredential; anything else that fails to
// parse or verify fails with ErrMalformedCredential. The two are distinguished
// because they map to different user-facing messages.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("TOKEN_EXPIRED").Wrap(ErrExpiredCredential)
		}
		return nil, oops.Code("TOKEN_MALFORMED").Wrap(ErrMalformedCredential)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, oops.Code("TOKEN_MALFORMED").Wrap(ErrMalformedCredential)
	}
	return claims, nil
}
