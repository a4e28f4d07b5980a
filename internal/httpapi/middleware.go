// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/refugia/authd/internal/auth"
	"github.com/refugia/authd/pkg/errutil"
)

// identityKey is the Locals key holding the authenticated identity.
const identityKey = "identity"

// requireAuth gates a route on a valid credential. On success the identity is
// stored in Locals for the handler.
func (s *Server) requireAuth(c fiber.Ctx) error {
	token := c.Cookies(CookieName)

	identity, err := s.authn.Authenticate(c.Context(), token)
	if err != nil {
		return s.denyAccess(c, err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// identityFrom returns the identity stored by requireAuth.
func identityFrom(c fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals(identityKey).(*auth.Identity)
	return identity
}

// denyAccess is the single exit for every failed authentication. Which
// denials clear the cookie is deliberate: a missing credential has nothing to
// clear, and an infrastructure fault must leave a possibly-valid credential
// in place so the user is not signed out by a database blip.
func (s *Server) denyAccess(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		s.metrics.RecordDenial("missing_credential")
		return respondError(c, fiber.StatusUnauthorized, "Authentication required")

	case errors.Is(err, auth.ErrExpiredCredential):
		s.metrics.RecordDenial("expired_credential")
		clearAuthCookie(c)
		return respondError(c, fiber.StatusUnauthorized, "Your session has expired, please sign in again")

	case errors.Is(err, auth.ErrIncompleteCredential):
		s.metrics.RecordDenial("malformed_credential")
		clearAuthCookie(c)
		return respondError(c, fiber.StatusUnauthorized, "Authentication token is incomplete")

	case errors.Is(err, auth.ErrMalformedCredential):
		s.metrics.RecordDenial("malformed_credential")
		clearAuthCookie(c)
		return respondError(c, fiber.StatusUnauthorized, "Invalid authentication token")

	case errors.Is(err, auth.ErrSessionInvalid):
		s.metrics.RecordDenial("session_invalid")
		clearAuthCookie(c)
		return respondError(c, fiber.StatusUnauthorized, "Your session is no longer valid, please sign in again")

	case errors.Is(err, auth.ErrAccountNotVerified):
		s.metrics.RecordDenial("account_not_verified")
		clearAuthCookie(c)
		return respondError(c, fiber.StatusForbidden, "Your email is not verified")

	default:
		errutil.LogError(s.logger, "authentication failed on infrastructure", err)
		return respondError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
