// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"github.com/vinovest/sqlx"

	"github.com/lqhuy/langcenter/internal/config"
)

// Open creates the admin connection pool. The admin credentials own the
// schema; per-user connections are opened separately through a Connector.
func Open(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Connector opens short-lived connections authenticated as individual
// database users, sharing everything but the credentials with the admin DSN.
type Connector struct {
	base *pgx.ConnConfig
}

// NewConnector parses the admin DSN once so user connections reuse its host,
// port and database name.
func NewConnector(adminDSN string) (*Connector, error) {
	base, err := pgx.ParseConfig(adminDSN)
	if err != nil {
		return nil, fmt.Errorf("parsing admin DSN: %w", err)
	}
	return &Connector{base: base}, nil
}

// UserDSN builds a connection string for the given user against the admin
// DSN's server and database.
func (c *Connector) UserDSN(username, password string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(username, password),
		Host:   net.JoinHostPort(c.base.Host, strconv.Itoa(int(c.base.Port))),
		Path:   "/" + c.base.Database,
	}
	if c.base.TLSConfig == nil {
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Connect opens a connection as the given user and verifies the credentials
// with a ping. The caller owns the returned handle and must close it.
func (c *Connector) Connect(ctx context.Context, username, password string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", c.UserDSN(username, password))
	if err != nil {
		return nil, err
	}

	// One request, one connection. These handles are not pooled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	// The ping performs the authentication handshake; bad credentials
	// surface here.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
