// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package userconn turns an inbound session token into a live database
// connection authenticated as the session's user, so queries run under the
// database's own permission model instead of a shared service account.
package userconn

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vinovest/sqlx"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/credcache"
	"github.com/lqhuy/langcenter/internal/repository"
)

// CredentialStore is the read side of the credential cache.
type CredentialStore interface {
	TryGet(token string) (credcache.Entry, bool)
}

// SessionReader reads the persisted session token for an account.
type SessionReader interface {
	SessionToken(ctx context.Context, username string) (string, error)
}

// Connector opens a connection authenticated as a specific user.
type Connector interface {
	Connect(ctx context.Context, username, password string) (*sqlx.DB, error)
}

// Resolver validates a session token against the cache and the accounts
// table before opening a user-scoped connection.
type Resolver struct {
	cache     CredentialStore
	accounts  SessionReader
	connector Connector
}

// New creates a Resolver.
func New(cache CredentialStore, accounts SessionReader, connector Connector) *Resolver {
	return &Resolver{cache: cache, accounts: accounts, connector: connector}
}

// UserConn is a resolved session: a connection authenticated as the session
// user plus the identity it belongs to.
type UserConn struct {
	DB       *sqlx.DB
	Username string
}

// Close releases the underlying connection.
func (u *UserConn) Close() error {
	return u.DB.Close()
}

// Resolve returns a connection owned by the caller, or an Unauthorized error
// when the token is missing, unknown, expired or superseded by a newer login.
// The caller must close the returned connection.
func (r *Resolver) Resolve(ctx context.Context, token string) (*UserConn, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.Unauthorized, "error_session_missing")
	}

	entry, ok := r.cache.TryGet(token)
	if !ok {
		slog.Warn("session_cache_miss", "token_prefix", tokenPrefix(token))
		return nil, apperr.New(apperr.Unauthorized, "error_session_expired")
	}

	// Durable re-check: a login elsewhere rewrites the column, which is
	// what kicks this device out.
	current, err := r.accounts.SessionToken(ctx, entry.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Unauthorized, "error_account_not_found", err)
		}
		// A failed read is a database problem, not a session problem; it
		// must not look like "please log in again".
		slog.Error("session_recheck_failed", "username", entry.Username, "error", err)
		return nil, apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if current == "" || current != token {
		slog.Warn("session_mismatch", "username", entry.Username)
		return nil, apperr.New(apperr.Unauthorized, "error_session_invalid")
	}

	db, err := r.connector.Connect(ctx, entry.Username, entry.Password)
	if err != nil {
		slog.Error("user_connection_failed", "username", entry.Username, "error", err)
		return nil, apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	return &UserConn{DB: db, Username: entry.Username}, nil
}

func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
