// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refugia/authd/internal/auth"
)

func testSession() *auth.Session {
	return &auth.Session{
		ID:             ulid.Make().String(),
		UserID:         ulid.Make().String(),
		UserAgent:      "test-agent",
		IPAddress:      "192.0.2.1",
		ExpiresAt:      time.Now().Add(4 * time.Hour),
		LastActivityAt: time.Now(),
	}
}

func TestSessionRepository_Create(t *testing.T) {
	session := testSession()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   bool
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO sessions`).
					WithArgs(session.ID, session.UserID, session.UserAgent,
						session.IPAddress, session.ExpiresAt, session.LastActivityAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantErr: false,
		},
		{
			name: "duplicate session id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO sessions`).
					WithArgs(session.ID, session.UserID, session.UserAgent,
						session.IPAddress, session.ExpiresAt, session.LastActivityAt).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: true,
			errMsg:  "SESSION_DUPLICATE_ID",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO sessions`).
					WithArgs(session.ID, session.UserID, session.UserAgent,
						session.IPAddress, session.ExpiresAt, session.LastActivityAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
			errMsg:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewSessionRepository(mock)
			err = repo.Create(context.Background(), session)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestSessionRepository_GetActive(t *testing.T) {
	session := testSession()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful get",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "user_id", "user_agent", "ip_address", "expires_at", "last_activity_at"}).
					AddRow(session.ID, session.UserID, session.UserAgent,
						session.IPAddress, session.ExpiresAt, session.LastActivityAt)
				mock.ExpectQuery(`SELECT id, user_id, user_agent, ip_address, expires_at, last_activity_at\s+FROM sessions\s+WHERE id = \$1 AND expires_at > now\(\)`).
					WithArgs(session.ID).
					WillReturnRows(rows)
			},
		},
		{
			name: "unknown or expired session",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, user_id, user_agent, ip_address, expires_at, last_activity_at\s+FROM sessions\s+WHERE id = \$1 AND expires_at > now\(\)`).
					WithArgs(session.ID).
					WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "user_agent", "ip_address", "expires_at", "last_activity_at"}))
			},
			wantErr: auth.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, user_id, user_agent, ip_address, expires_at, last_activity_at\s+FROM sessions\s+WHERE id = \$1 AND expires_at > now\(\)`).
					WithArgs(session.ID).
					WillReturnError(errors.New("timeout"))
			},
			errMsg: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewSessionRepository(mock)
			got, err := repo.GetActive(context.Background(), session.ID)

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.NotErrorIs(t, err, auth.ErrNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, session.ID, got.ID)
				assert.Equal(t, session.UserID, got.UserID)
				assert.Equal(t, session.UserAgent, got.UserAgent)
				assert.Equal(t, session.IPAddress, got.IPAddress)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	id := ulid.Make().String()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful delete",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
					WithArgs(id).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "session not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
					WithArgs(id).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: auth.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
					WithArgs(id).
					WillReturnError(errors.New("connection lost"))
			},
			errMsg: "connection lost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewSessionRepository(mock)
			err = repo.Delete(context.Background(), id)

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      int64
		wantErr   bool
	}{
		{
			name: "deletes expired sessions",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < now\(\)`).
					WillReturnResult(pgxmock.NewResult("DELETE", 3))
			},
			want: 3,
		},
		{
			name: "nothing to delete",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < now\(\)`).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			want: 0,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < now\(\)`).
					WillReturnError(errors.New("disk full"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewSessionRepository(mock)
			got, err := repo.DeleteExpired(context.Background())

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}
