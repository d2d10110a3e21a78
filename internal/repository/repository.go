// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository

import (
	"database/sql"
	"errors"

	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ErrRowLocked is returned when a row lock could not be acquired within the
// lock timeout.
var ErrRowLocked = errors.New("row locked by concurrent transaction")

// ErrUnexpectedRowCount is returned when an update affected a number of rows
// it never should have.
var ErrUnexpectedRowCount = errors.New("unexpected affected row count")

// Repository wraps a database handle. It is bound to the admin pool by
// default; On rebinds it to a user-scoped connection.
type Repository struct {
	db *sqlx.DB
}

// New creates a Repository on the given handle.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// On returns a Repository running its queries over another handle, typically
// a connection resolved for the requesting user.
func (r *Repository) On(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying handle for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// wrapNotFound converts sql.ErrNoRows to ErrNotFound.
func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
