// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"github.com/lqhuy/langcenter/internal/repository"
)

// NewMockDB creates a sqlmock-backed database handle for tests. The handle is
// closed automatically when the test finishes.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "pgx"), mock
}

// NewMockRepo creates a repository over a sqlmock handle.
func NewMockRepo(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := NewMockDB(t)
	return repository.New(db), mock
}
