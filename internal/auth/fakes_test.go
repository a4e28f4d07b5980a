// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package auth_test

import (
	"context"
	"sync"

	"github.com/refugia/authd/internal/auth"
)

// fakeSessionRepo is an in-memory SessionRepository honoring the
// expires-at-past-now contract of GetActive.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session

	createErr    error
	getActiveErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*auth.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *auth.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) GetActive(_ context.Context, id string) (*auth.Session, error) {
	if f.getActiveErr != nil {
		return nil, f.getActiveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.IsExpired() {
		return nil, auth.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return auth.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, session := range f.sessions {
		if session.IsExpired() {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// fakeAccountRepo is an in-memory AccountRepository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	statuses map[string]*auth.AccountStatus

	getStatusErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{statuses: make(map[string]*auth.AccountStatus)}
}

func (f *fakeAccountRepo) put(status *auth.AccountStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[status.UserID] = status
}

func (f *fakeAccountRepo) GetStatus(_ context.Context, userID string) (*auth.AccountStatus, error) {
	if f.getStatusErr != nil {
		return nil, f.getStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[userID]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *status
	return &cp, nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func mustCodec(secret string) *auth.TokenCodec {
	codec, err := auth.NewTokenCodec(secret)
	if err != nil {
		panic(err)
	}
	return codec
}
