// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/lqhuy/langcenter/internal/models"
)

// GetOTP retrieves a pending code by its (username, code) key.
func (r *Repository) GetOTP(ctx context.Context, username, code string) (*models.OtpCode, error) {
	var otp models.OtpCode
	err := r.db.GetContext(ctx, &otp,
		`SELECT username, otp_code, expires_at, reg_payload, created_at
		   FROM otp_codes
		  WHERE lower(username) = lower($1) AND otp_code = $2`,
		strings.TrimSpace(username), code)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &otp, nil
}

// LatestOTP returns the most recently issued pending code for a username.
// Resend uses it to recover the registration payload.
func (r *Repository) LatestOTP(ctx context.Context, username string) (*models.OtpCode, error) {
	var otp models.OtpCode
	err := r.db.GetContext(ctx, &otp,
		`SELECT username, otp_code, expires_at, reg_payload, created_at
		   FROM otp_codes
		  WHERE lower(username) = lower($1)
		  ORDER BY created_at DESC
		  LIMIT 1`,
		strings.TrimSpace(username))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &otp, nil
}

// ReplaceOTP purges any previous codes for the username and inserts a new
// one, so at most one live code exists per username. regPayload is nil for
// password-reset codes.
func (r *Repository) ReplaceOTP(ctx context.Context, username, code string, expiresAt time.Time, regPayload *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	username = strings.TrimSpace(username)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE lower(username) = lower($1)`, username); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO otp_codes (username, otp_code, expires_at, reg_payload) VALUES ($1, $2, $3, $4)`,
		username, code, expiresAt, regPayload); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteOTPs removes every code for a username. Deletion is what makes codes
// single-use.
func (r *Repository) DeleteOTPs(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE lower(username) = lower($1)`, strings.TrimSpace(username))
	return err
}

// CountOTPs returns the number of live codes for a username.
func (r *Repository) CountOTPs(ctx context.Context, username string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM otp_codes WHERE lower(username) = lower($1)`, strings.TrimSpace(username))
	return count, err
}
