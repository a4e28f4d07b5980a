// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMigrate implements migrateIface for testing without a database.
type mockMigrate struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	srcErr     error
	dbErr      error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.version, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.srcErr, m.dbErr }

func TestMigrator_Up(t *testing.T) {
	tests := []struct {
		name    string
		upErr   error
		wantErr bool
	}{
		{"success", nil, false},
		{"no change is not an error", migrate.ErrNoChange, false},
		{"failure", errors.New("syntax error in migration"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: &mockMigrate{upErr: tt.upErr}}
			err := m.Up()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMigrator_Down(t *testing.T) {
	m := &Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}
	require.NoError(t, m.Down())

	m = &Migrator{m: &mockMigrate{downErr: errors.New("locked")}}
	require.Error(t, m.Down())
}

func TestMigrator_Version(t *testing.T) {
	tests := []struct {
		name        string
		mock        *mockMigrate
		wantVersion uint
		wantDirty   bool
		wantErr     bool
	}{
		{"applied version", &mockMigrate{version: 2}, 2, false, false},
		{"dirty state", &mockMigrate{version: 2, dirty: true}, 2, true, false},
		{"nil version means zero", &mockMigrate{versionErr: migrate.ErrNilVersion}, 0, false, false},
		{"failure", &mockMigrate{versionErr: errors.New("connection lost")}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: tt.mock}
			version, dirty, err := m.Version()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantDirty, dirty)
		})
	}
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name    string
		mock    *mockMigrate
		wantErr bool
		errMsg  string
	}{
		{"clean close", &mockMigrate{}, false, ""},
		{"source error", &mockMigrate{srcErr: errors.New("source failed")}, true, "source failed"},
		{"database error", &mockMigrate{dbErr: errors.New("db failed")}, true, "db failed"},
		{"both errors combined", &mockMigrate{srcErr: errors.New("src"), dbErr: errors.New("db")}, true, "src"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: tt.mock}
			err := m.Close()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := 0
	downs := 0
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected file in migrations dir: %s", name)
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a matching down")
}
