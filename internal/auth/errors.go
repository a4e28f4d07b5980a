// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Denial kinds. Each maps to exactly one user-facing rejection; anything that
// doesn't match one of these is an infrastructure fault and must not clear the
// client's credential.
var (
	// ErrMissingCredential: the request carried no token at all.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMalformedCredential: the token failed to parse or its signature check.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrExpiredCredential: the token's own expiry claim has elapsed.
	ErrExpiredCredential = errors.New("expired credential")

	// ErrSessionInvalid: the referenced session is gone or past its expiry.
	ErrSessionInvalid = errors.New("session expired or invalid")

	// ErrAccountNotVerified: the bound account is missing or unverified.
	ErrAccountNotVerified = errors.New("account not verified or missing")
)

// ErrIncompleteCredential is the malformed kind with a distinct message: the
// token parsed and verified but its payload lacks a session identifier.
var ErrIncompleteCredential = fmt.Errorf("%w: token payload missing session id", ErrMalformedCredential)

// IsDenial reports whether err is one of the expected denial kinds, as opposed
// to an infrastructure fault.
func IsDenial(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrMalformedCredential) ||
		errors.Is(err, ErrExpiredCredential) ||
		errors.Is(err, ErrSessionInvalid) ||
		errors.Is(err, ErrAccountNotVerified)
}
