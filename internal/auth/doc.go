// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

// Package auth implements the session/token authentication protocol.
//
// Identity is established by two independent artifacts: a signed, expiring
// token held by the client, and a server-side session record the token points
// at. The token is a capability; the session row is the authority. Both are
// checked on every protected request, so a session revoked server-side
// invalidates a still-unexpired token.
package auth
