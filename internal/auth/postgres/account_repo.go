// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/refugia/authd/internal/auth"
)

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetStatus retrieves the verification and activity flags for a user.
func (r *AccountRepository) GetStatus(ctx context.Context, userID string) (*auth.AccountStatus, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email_verified, active
		FROM users
		WHERE id = $1
	`, userID)

	var status auth.AccountStatus
	err := row.Scan(&status.UserID, &status.Verified, &status.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_STATUS_FAILED").
			With("operation", "get account status").
			With("user_id", userID).
			Wrap(err)
	}
	return &status, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
