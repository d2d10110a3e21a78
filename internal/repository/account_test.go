// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lqhuy/langcenter/internal/repository"
	"github.com/lqhuy/langcenter/internal/testutil"
)

func newRepoWithMock(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	return testutil.NewMockRepo(t)
}

func accountRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"user_id", "username", "email", "password", "role_id", "is_active",
		"current_session_token", "created_at", "updated_at",
	}).AddRow(int64(7), "alice", "alice@x.com", "$2a$10$hash", int64(1), true, nil, now, now)
}

func TestGetAccountByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE lower\(username\) = lower\(\$1\)`).
		WithArgs("alice").
		WillReturnRows(accountRows())

	account, err := repo.GetAccountByUsername(context.Background(), "  alice ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.UserID)
	assert.Equal(t, "alice", account.Username)
	assert.False(t, account.CurrentSessionToken.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByUsernameNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAccountByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActiveEmailInUse(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM accounts WHERE lower\(email\)`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	used, err := repo.ActiveEmailInUse(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestSessionTokenNull(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT current_session_token FROM accounts`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"current_session_token"}).AddRow(nil))

	token, err := repo.SessionToken(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAssignSessionToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM accounts WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`UPDATE accounts SET current_session_token = \$1`).
		WithArgs("tok", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AssignSessionToken(context.Background(), 7, "tok")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignSessionTokenRowLocked(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM accounts WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnError(&pgconn.PgError{Code: "55P03"})
	mock.ExpectRollback()

	err := repo.AssignSessionToken(context.Background(), 7, "tok")
	assert.ErrorIs(t, err, repository.ErrRowLocked)
}

func TestAssignSessionTokenUnexpectedRowCount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM accounts WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`UPDATE accounts SET current_session_token = \$1`).
		WithArgs("tok", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AssignSessionToken(context.Background(), 7, "tok")
	assert.ErrorIs(t, err, repository.ErrUnexpectedRowCount)
}

func TestActivateAccountNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE accounts SET is_active = TRUE`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ActivateAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE accounts SET password = \$1`).
		WithArgs("$2a$10$newhash", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePassword(context.Background(), "alice", "$2a$10$newhash")
	assert.NoError(t, err)
}

func TestGetUserInfo(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"user_id", "username", "email", "coalesce", "coalesce"}).
		AddRow(int64(7), "alice", "alice@x.com", "hoc_vien", "Alice Nguyen")
	mock.ExpectQuery(`SELECT a\.user_id, a\.username, a\.email`).
		WithArgs("alice").
		WillReturnRows(rows)

	info, err := repo.GetUserInfo(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "hoc_vien", info.Role)
	assert.Equal(t, "Alice Nguyen", info.FullName)
}
