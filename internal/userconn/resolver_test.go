// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package userconn_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/credcache"
	"github.com/lqhuy/langcenter/internal/repository"
	"github.com/lqhuy/langcenter/internal/userconn"
)

type fakeSessions struct {
	tokens map[string]string
	err    error
}

func (f *fakeSessions) SessionToken(_ context.Context, username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	token, ok := f.tokens[username]
	if !ok {
		return "", repository.ErrNotFound
	}
	return token, nil
}

type fakeConnector struct {
	db       *sqlx.DB
	err      error
	username string
	password string
}

func (f *fakeConnector) Connect(_ context.Context, username, password string) (*sqlx.DB, error) {
	f.username = username
	f.password = password
	if f.err != nil {
		return nil, f.err
	}
	return f.db, nil
}

func newResolver(t *testing.T) (*userconn.Resolver, *credcache.Cache, *fakeSessions, *fakeConnector) {
	t.Helper()
	cache := credcache.New()
	sessions := &fakeSessions{tokens: map[string]string{}}
	connector := &fakeConnector{db: &sqlx.DB{}}
	return userconn.New(cache, sessions, connector), cache, sessions, connector
}

func TestResolveMissingToken(t *testing.T) {
	resolver, _, _, _ := newResolver(t)

	for _, token := range []string{"", "   "} {
		_, err := resolver.Resolve(context.Background(), token)
		assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
		assert.Equal(t, "error_session_missing", apperr.MessageOf(err))
	}
}

func TestResolveUnknownToken(t *testing.T) {
	resolver, _, _, _ := newResolver(t)

	_, err := resolver.Resolve(context.Background(), "deadbeef")
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
	assert.Equal(t, "error_session_expired", apperr.MessageOf(err))
}

func TestResolveSupersededSession(t *testing.T) {
	resolver, cache, sessions, _ := newResolver(t)
	cache.Set("old-token", "alice", "secret", time.Hour)
	sessions.tokens["alice"] = "new-token"

	_, err := resolver.Resolve(context.Background(), "old-token")
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
	assert.Equal(t, "error_session_invalid", apperr.MessageOf(err))
}

func TestResolveAccountGone(t *testing.T) {
	resolver, cache, _, _ := newResolver(t)
	cache.Set("tok", "ghost", "secret", time.Hour)

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
	assert.Equal(t, "error_account_not_found", apperr.MessageOf(err))
}

func TestResolveSessionReadFailure(t *testing.T) {
	resolver, cache, sessions, _ := newResolver(t)
	cache.Set("tok", "alice", "secret", time.Hour)
	sessions.err = errors.New("connection refused")

	// A database outage during the re-check is not a stale session.
	_, err := resolver.Resolve(context.Background(), "tok")
	assert.True(t, apperr.IsKind(err, apperr.Fatal))
	assert.Equal(t, "error_internal", apperr.MessageOf(err))
}

func TestResolveSuccess(t *testing.T) {
	resolver, cache, sessions, connector := newResolver(t)
	cache.Set("tok", "alice", "secret", time.Hour)
	sessions.tokens["alice"] = "tok"

	conn, err := resolver.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Same(t, connector.db, conn.DB)
	assert.Equal(t, "alice", conn.Username)
	assert.Equal(t, "alice", connector.username)
	assert.Equal(t, "secret", connector.password)
}

func TestResolveConnectorFailure(t *testing.T) {
	resolver, cache, sessions, connector := newResolver(t)
	cache.Set("tok", "alice", "secret", time.Hour)
	sessions.tokens["alice"] = "tok"
	connector.err = errors.New("connection refused")

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.True(t, apperr.IsKind(err, apperr.Fatal))
}

func TestResolveExpiredCacheEntry(t *testing.T) {
	resolver, cache, sessions, _ := newResolver(t)
	cache.Set("tok", "alice", "secret", -time.Minute)
	sessions.tokens["alice"] = "tok"

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.Equal(t, "error_session_expired", apperr.MessageOf(err))
}
