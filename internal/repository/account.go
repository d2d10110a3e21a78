// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lqhuy/langcenter/internal/models"
)

const accountColumns = `user_id, username, email, password, role_id, is_active, current_session_token, created_at, updated_at`

// GetAccountByUsername retrieves an account by username, case-insensitively.
func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &account, nil
}

// ActiveEmailInUse reports whether an active account already owns the email.
func (r *Repository) ActiveEmailInUse(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM accounts WHERE lower(email) = lower($1) AND is_active`,
		strings.TrimSpace(email))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SessionToken reads the current session token column for a username. A NULL
// column comes back as the empty string.
func (r *Repository) SessionToken(ctx context.Context, username string) (string, error) {
	var token sql.NullString
	err := r.db.GetContext(ctx, &token,
		`SELECT current_session_token FROM accounts WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	if err != nil {
		return "", wrapNotFound(err)
	}
	return token.String, nil
}

// AssignSessionToken writes a freshly issued session token onto the account
// row inside a transaction that first takes a row lock with a 1s timeout.
// Returns ErrRowLocked when a concurrent login holds the lock, ErrNotFound
// when the account vanished, and ErrUnexpectedRowCount when the update did
// not touch exactly one row.
func (r *Repository) AssignSessionToken(ctx context.Context, userID int64, token string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SET LOCAL lock_timeout = '1s'`); err != nil {
		return err
	}

	var one int
	err = tx.QueryRowxContext(ctx, `SELECT 1 FROM accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&one)
	if err != nil {
		if isLockTimeout(err) {
			return ErrRowLocked
		}
		return wrapNotFound(err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET current_session_token = $1, updated_at = now() WHERE user_id = $2`,
		token, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("%w: %d rows updating session for user %d", ErrUnexpectedRowCount, affected, userID)
	}

	return tx.Commit()
}

// NewStudentAccount carries the fields needed to commit a pending
// registration.
type NewStudentAccount struct {
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Sex          *string
	DateOfBirth  *time.Time
	PhoneNumber  *string
	Address      *string
}

// CreateStudentAccount creates the account and its student profile row in
// one transaction. The account starts inactive; activation happens after the
// OTP is verified.
func (r *Repository) CreateStudentAccount(ctx context.Context, params NewStudentAccount) (*models.Account, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var roleID int64
	if err := tx.GetContext(ctx, &roleID,
		`SELECT role_id FROM roles WHERE role_name = $1`, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("resolving student role: %w", err)
	}

	var account models.Account
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO accounts (username, email, password, role_id, is_active)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING `+accountColumns,
		strings.TrimSpace(params.Username), strings.TrimSpace(params.Email), params.PasswordHash, roleID,
	).StructScan(&account)
	if err != nil {
		return nil, err
	}

	studentCode := fmt.Sprintf("HV%06d", account.UserID)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO students (student_id, full_name, student_code, sex, date_of_birth, phone_number, address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.UserID, params.FullName, studentCode,
		params.Sex, params.DateOfBirth, params.PhoneNumber, params.Address,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &account, nil
}

// ActivateAccount flips the active flag on.
func (r *Repository) ActivateAccount(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = TRUE, updated_at = now() WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword rewrites the stored password for a username. Zero affected
// rows means the account does not exist.
func (r *Repository) UpdatePassword(ctx context.Context, username, password string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password = $1, updated_at = now() WHERE lower(username) = lower($2)`,
		password, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserInfo assembles the profile payload returned by login.
func (r *Repository) GetUserInfo(ctx context.Context, username string) (*models.UserInfo, error) {
	var info models.UserInfo
	err := r.db.QueryRowxContext(ctx,
		`SELECT a.user_id, a.username, a.email,
		        coalesce(v.role_name, ''), coalesce(s.full_name, '')
		   FROM accounts a
		   LEFT JOIN roles v ON v.role_id = a.role_id
		   LEFT JOIN students s ON s.student_id = a.user_id
		  WHERE lower(a.username) = lower($1)`,
		strings.TrimSpace(username),
	).Scan(&info.UserID, &info.Username, &info.Email, &info.Role, &info.FullName)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &info, nil
}

// ProvisionDatabaseRole creates (or re-passwords) the login role backing
// per-user connections in probe mode. Membership in the hoc_vien group role
// carries the table grants.
func (r *Repository) ProvisionDatabaseRole(ctx context.Context, username, password string) error {
	ident := pgx.Identifier{strings.ToLower(strings.TrimSpace(username))}.Sanitize()
	literal := strings.ReplaceAll(password, "'", "''")

	stmt := fmt.Sprintf(`CREATE ROLE %s LOGIN PASSWORD '%s' IN ROLE %s`, ident, literal, models.RoleStudent)
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42710" { // duplicate_object
			alter := fmt.Sprintf(`ALTER ROLE %s PASSWORD '%s'`, ident, literal)
			_, alterErr := r.db.ExecContext(ctx, alter)
			return alterErr
		}
		return err
	}
	return nil
}

// isLockTimeout reports whether err is the lock_not_available condition
// raised when lock_timeout expires.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
