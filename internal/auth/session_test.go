// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refugia/authd/internal/auth"
)

func TestNewSession(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)

	session, err := auth.NewSession("user-1", "agent", "192.0.2.1", expiresAt)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "agent", session.UserAgent)
	assert.Equal(t, "192.0.2.1", session.IPAddress)
	assert.Equal(t, expiresAt, session.ExpiresAt)
	assert.False(t, session.LastActivityAt.IsZero())
}

func TestNewSession_OptionalMetadata(t *testing.T) {
	session, err := auth.NewSession("user-1", "", "", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, session.UserAgent)
	assert.Empty(t, session.IPAddress)
}

func TestNewSession_Validation(t *testing.T) {
	_, err := auth.NewSession("", "agent", "ip", time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user id cannot be empty")

	_, err = auth.NewSession("user-1", "agent", "ip", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiry time cannot be zero")
}

func TestNewSession_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		session, err := auth.NewSession("user-1", "", "", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, seen[session.ID], "duplicate session id %s", session.ID)
		seen[session.ID] = true
	}
}

func TestSession_IsExpiredAt(t *testing.T) {
	now := time.Now()
	session := &auth.Session{ExpiresAt: now}

	assert.False(t, session.IsExpiredAt(now.Add(-time.Second)))
	assert.True(t, session.IsExpiredAt(now))
	assert.True(t, session.IsExpiredAt(now.Add(time.Second)))
}
