// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// CookieName is the credential cookie presented on every request.
const CookieName = "auth_token"

// authCookie returns the one attribute set shared by mint and clear. A clear
// with different attributes would not override the stored cookie, so both
// paths go through here.
func authCookie(value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

// setAuthCookie installs the token with a max-age matching the session TTL.
func setAuthCookie(c fiber.Ctx, token string, ttl time.Duration) {
	cookie := authCookie(token)
	cookie.MaxAge = int(ttl.Seconds())
	cookie.Expires = time.Now().Add(ttl)
	c.Cookie(cookie)
}

// clearAuthCookie expires the credential client-side.
func clearAuthCookie(c fiber.Ctx) {
	cookie := authCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(cookie)
}
