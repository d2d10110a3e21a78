// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package credcache holds the per-process credential cache that maps a
// session token to the database credentials of the user who logged in with
// it. The cache is deliberately volatile: a restart drops every entry, which
// means active sessions lose the ability to open user-scoped connections
// until the next login, even though their tokens are still recorded in the
// accounts table.
package credcache

import (
	"sync"
	"time"
)

// Entry is the cached credential triple for one session token.
type Entry struct {
	Username string
	Password string
	Expiry   time.Time
}

// Cache is a concurrency-safe, TTL-bounded token→credential map. Expiry is
// checked lazily on read; there is no background sweeper.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Set stores the credentials for a session token, replacing any previous
// entry for the same token.
func (c *Cache) Set(token, username, password string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = Entry{
		Username: username,
		Password: password,
		Expiry:   c.now().Add(ttl),
	}
}

// TryGet returns the entry for a token. An expired entry is evicted and
// reported as a miss, indistinguishable from an absent one.
func (c *Cache) TryGet(token string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if c.now().After(entry.Expiry) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if current, still := c.entries[token]; still && c.now().After(current.Expiry) {
			delete(c.entries, token)
		}
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Remove drops the entry for a token. Removing an absent token is a no-op.
func (c *Cache) Remove(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
}

// Len returns the number of entries, including any not yet lazily evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
