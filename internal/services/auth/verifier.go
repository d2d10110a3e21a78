// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package auth

import (
	"context"

	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/models"
)

// dummyHash is compared against when the account does not exist, so both
// branches of a failed login cost one bcrypt verification.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// CredentialVerifier checks a password against an account.
type CredentialVerifier interface {
	Verify(ctx context.Context, account *models.Account, password string) error
}

// StoredVerifier compares the password against the bcrypt hash stored on the
// account row.
type StoredVerifier struct{}

func (StoredVerifier) Verify(_ context.Context, account *models.Account, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return apperr.Wrap(apperr.Unauthorized, "error_bad_credentials", err)
	}
	return nil
}

// Connector opens a database connection authenticated as a specific user.
type Connector interface {
	Connect(ctx context.Context, username, password string) (*sqlx.DB, error)
}

// ProbeVerifier validates credentials by opening a live database connection
// as the user, letting the database itself be the authority.
type ProbeVerifier struct {
	Connector Connector
}

func (v ProbeVerifier) Verify(ctx context.Context, account *models.Account, password string) error {
	db, err := v.Connector.Connect(ctx, account.Username, password)
	if err != nil {
		return apperr.Wrap(apperr.Unauthorized, "error_bad_credentials", err)
	}
	_ = db.Close()
	return nil
}

// HashPassword wraps bcrypt with the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
