// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth

import "context"

// AccountStatus carries the account flags consulted to gate authentication.
// Verified gates authentication; Active is surfaced to downstream handlers
// but does not block it here.
type AccountStatus struct {
	UserID   string
	Verified bool
	Active   bool
}

// AccountRepository reads account verification state from the credential
// store. Accounts themselves are owned by the store's registration
// procedures; this package only reads them.
type AccountRepository interface {
	// GetStatus retrieves the verification/active flags for a user.
	// Returns ErrNotFound if no such account exists.
	GetStatus(ctx context.Context, userID string) (*AccountStatus, error)
}
