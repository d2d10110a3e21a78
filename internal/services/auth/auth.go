// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package auth implements the account and session lifecycle: login with
// row-locked session assignment, OTP-gated registration and password reset,
// logout and session checks.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/crypto/bcrypt"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/config"
	"github.com/lqhuy/langcenter/internal/models"
	"github.com/lqhuy/langcenter/internal/repository"
)

// Store is the persistence surface the service needs. *repository.Repository
// satisfies it.
type Store interface {
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	ActiveEmailInUse(ctx context.Context, email string) (bool, error)
	SessionToken(ctx context.Context, username string) (string, error)
	AssignSessionToken(ctx context.Context, userID int64, token string) error
	CreateStudentAccount(ctx context.Context, params repository.NewStudentAccount) (*models.Account, error)
	ActivateAccount(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username, password string) error
	GetUserInfo(ctx context.Context, username string) (*models.UserInfo, error)
	GetOTP(ctx context.Context, username, code string) (*models.OtpCode, error)
	LatestOTP(ctx context.Context, username string) (*models.OtpCode, error)
	ReplaceOTP(ctx context.Context, username, code string, expiresAt time.Time, regPayload *string) error
	DeleteOTPs(ctx context.Context, username string) error
	ProvisionDatabaseRole(ctx context.Context, username, password string) error
}

// CredentialCache is the write side of the session credential cache.
type CredentialCache interface {
	Set(token, username, password string, ttl time.Duration)
	Remove(token string)
}

// Mailer delivers one-time codes. Failures are logged, never surfaced to the
// caller.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

const (
	assignAttempts = 3
	assignBackoff  = 300 * time.Millisecond
)

// Service wires the auth operations together.
type Service struct {
	store      Store
	cache      CredentialCache
	verifier   CredentialVerifier
	mailer     Mailer
	sessionTTL time.Duration
	otpTTL     time.Duration
	provision  bool

	now      func() time.Time
	newToken func() string
	newOTP   func() string
}

// New creates the auth service from its collaborators and config.
func New(store Store, cache CredentialCache, verifier CredentialVerifier, mailer Mailer, cfg *config.AuthConfig) *Service {
	return &Service{
		store:      store,
		cache:      cache,
		verifier:   verifier,
		mailer:     mailer,
		sessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
		otpTTL:     time.Duration(cfg.OTPTTLMinutes) * time.Minute,
		provision:  cfg.ProvisionDBUsers,
		now:        time.Now,
		newToken:   NewSessionToken,
		newOTP:     NewOTPCode,
	}
}

// LoginResult is the payload a successful login returns.
type LoginResult struct {
	SessionToken string           `json:"session_id"`
	BearerToken  string           `json:"token"`
	User         *models.UserInfo `json:"user"`
}

// Login verifies credentials, assigns a fresh session token under a row lock
// and caches the credentials for per-user connections. A newer login
// supersedes any previous session for the account.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.New(apperr.Validation, "error_username_required")
	}
	if password == "" {
		return nil, apperr.New(apperr.Validation, "error_password_required")
	}

	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a hash comparison so the missing-account branch is
			// not observably faster.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperr.New(apperr.Unauthorized, "error_account_not_found")
		}
		return nil, apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if !account.IsActive {
		return nil, apperr.New(apperr.Unauthorized, "error_account_not_activated")
	}
	if err := s.verifier.Verify(ctx, account, password); err != nil {
		return nil, err
	}

	token := s.newToken()
	if err := s.assignToken(ctx, account.UserID, token); err != nil {
		return nil, err
	}
	s.cache.Set(token, account.Username, password, s.sessionTTL)

	info, err := s.store.GetUserInfo(ctx, account.Username)
	if err != nil {
		slog.Warn("user_info_lookup_failed", "username", account.Username, "error", err)
		info = &models.UserInfo{UserID: account.UserID, Username: account.Username, Email: account.Email}
	}

	slog.Info("login_success", "username", account.Username, "user_id", account.UserID)
	return &LoginResult{
		SessionToken: token,
		BearerToken:  DisplayToken(account.UserID, account.Username, s.now()),
		User:         info,
	}, nil
}

// assignToken writes the token with a bounded retry around the row lock. A
// concurrent login holding the lock makes the attempt retryable; exhausting
// the attempts surfaces as a Transient error.
func (s *Service) assignToken(ctx context.Context, userID int64, token string) error {
	backoff := retry.WithMaxRetries(assignAttempts-1, retry.NewConstant(assignBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.store.AssignSessionToken(ctx, userID, token)
		if errors.Is(err, repository.ErrRowLocked) {
			return retry.RetryableError(err)
		}
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRowLocked):
		slog.Warn("session_assign_contended", "user_id", userID)
		return apperr.Wrap(apperr.Transient, "error_account_busy", err)
	case errors.Is(err, repository.ErrUnexpectedRowCount):
		return apperr.Wrap(apperr.Fatal, "error_session_create", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Wrap(apperr.Unauthorized, "error_account_not_found", err)
	default:
		return apperr.Wrap(apperr.Fatal, "error_session_create", err)
	}
}

// RegisterRequest carries the fields of a registration submission.
type RegisterRequest struct {
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FullName    string     `json:"full_name"`
	Sex         *string    `json:"sex"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	PhoneNumber *string    `json:"phone_number"`
	Address     *string    `json:"address"`
}

// pendingRegistration is the payload serialized into the OTP row and replayed
// at verification time. The password travels in the clear here because probe
// mode needs it to provision the database role; the row lives at most the OTP
// TTL.
type pendingRegistration struct {
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FullName    string     `json:"full_name"`
	Sex         *string    `json:"sex,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Address     *string    `json:"address,omitempty"`
}

// Register starts a registration: validates the submission, stages a pending
// OTP row and emails the code. The account itself is created when the code is
// verified.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		return "", apperr.New(apperr.Validation, "error_username_required")
	}
	if req.Email == "" {
		return "", apperr.New(apperr.Validation, "error_email_required")
	}
	if req.Password == "" {
		return "", apperr.New(apperr.Validation, "error_password_required")
	}

	account, err := s.store.GetAccountByUsername(ctx, req.Username)
	switch {
	case err == nil && account.IsActive:
		return "", apperr.New(apperr.Conflict, "error_username_taken")
	case err == nil:
		// A pending (inactive) account already holds the username. Reissue
		// the code to the address on file instead of creating a duplicate.
		if err := s.issueOTP(ctx, account.Username, account.Email, nil); err != nil {
			return "", err
		}
		return "register_check_email", nil
	case errors.Is(err, repository.ErrNotFound):
		// New username, continue below.
	default:
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}

	used, err := s.store.ActiveEmailInUse(ctx, req.Email)
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if used {
		return "", apperr.New(apperr.Conflict, "error_email_in_use")
	}

	payload, err := json.Marshal(pendingRegistration(req))
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	serialized := string(payload)
	if err := s.issueOTP(ctx, req.Username, req.Email, &serialized); err != nil {
		return "", err
	}
	return "register_check_email", nil
}

// issueOTP replaces any pending code for the username and emails the new one.
// Mail failures are logged only; the pending row stays usable via resend.
func (s *Service) issueOTP(ctx context.Context, username, email string, payload *string) error {
	code := s.newOTP()
	expiresAt := s.now().Add(s.otpTTL)
	if err := s.store.ReplaceOTP(ctx, username, code, expiresAt, payload); err != nil {
		return apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if err := s.mailer.SendOTP(ctx, email, code, s.otpTTL); err != nil {
		slog.Error("otp_mail_failed", "username", username, "error", err)
	} else {
		slog.Info("otp_sent", "username", username)
	}
	return nil
}

// VerifyOTP consumes a pending code. For a staged registration it creates the
// account and student profile and activates them; codes are single-use by
// deletion.
func (s *Service) VerifyOTP(ctx context.Context, username, code string) (string, error) {
	username = strings.TrimSpace(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return "", apperr.New(apperr.Validation, "error_otp_invalid")
	}

	otp, err := s.store.GetOTP(ctx, username, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.Validation, "error_otp_invalid")
		}
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if otp.Expired(s.now()) {
		return "", apperr.New(apperr.Validation, "error_otp_expired")
	}

	_, err = s.store.GetAccountByUsername(ctx, username)
	switch {
	case err == nil:
		if err := s.store.ActivateAccount(ctx, username); err != nil {
			return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
		}
	case errors.Is(err, repository.ErrNotFound):
		if err := s.commitRegistration(ctx, username, otp); err != nil {
			return "", err
		}
	default:
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}

	if err := s.store.DeleteOTPs(ctx, username); err != nil {
		slog.Error("otp_cleanup_failed", "username", username, "error", err)
	}
	slog.Info("account_activated", "username", username)
	return "verify_success", nil
}

// commitRegistration replays the staged payload: creates the inactive account
// plus student profile, activates it, and provisions the database role when
// that policy is on.
func (s *Service) commitRegistration(ctx context.Context, username string, otp *models.OtpCode) error {
	if !otp.RegPayload.Valid {
		return apperr.New(apperr.Validation, "error_otp_invalid")
	}
	var pending pendingRegistration
	if err := json.Unmarshal([]byte(otp.RegPayload.String), &pending); err != nil {
		return apperr.Wrap(apperr.Fatal, "error_internal", err)
	}

	hash, err := HashPassword(pending.Password)
	if err != nil {
		return apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	_, err = s.store.CreateStudentAccount(ctx, repository.NewStudentAccount{
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: hash,
		FullName:     pending.FullName,
		Sex:          pending.Sex,
		DateOfBirth:  pending.DateOfBirth,
		PhoneNumber:  pending.PhoneNumber,
		Address:      pending.Address,
	})
	if err != nil {
		return apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if err := s.store.ActivateAccount(ctx, username); err != nil {
		return apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if s.provision {
		if err := s.store.ProvisionDatabaseRole(ctx, pending.Username, pending.Password); err != nil {
			return apperr.Wrap(apperr.Fatal, "error_internal", fmt.Errorf("provisioning role for %s: %w", pending.Username, err))
		}
	}
	return nil
}

// ResendOTP reissues the pending code for a staged or inactive account.
func (s *Service) ResendOTP(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperr.New(apperr.Validation, "error_username_required")
	}

	account, err := s.store.GetAccountByUsername(ctx, username)
	switch {
	case err == nil && account.IsActive:
		return "", apperr.New(apperr.Conflict, "error_username_taken")
	case err == nil:
		if err := s.issueOTP(ctx, account.Username, account.Email, nil); err != nil {
			return "", err
		}
		return "otp_resent", nil
	case errors.Is(err, repository.ErrNotFound):
		// Staged registration with no account row yet; recover the payload
		// from the latest pending code.
	default:
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}

	otp, err := s.store.LatestOTP(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.Validation, "error_account_not_found")
		}
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if !otp.RegPayload.Valid {
		return "", apperr.New(apperr.Validation, "error_account_not_found")
	}
	var pending pendingRegistration
	if err := json.Unmarshal([]byte(otp.RegPayload.String), &pending); err != nil {
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	payload := otp.RegPayload.String
	if err := s.issueOTP(ctx, username, pending.Email, &payload); err != nil {
		return "", err
	}
	return "otp_resent", nil
}

// ForgotPassword stages a password-reset code for an active account whose
// email matches.
func (s *Service) ForgotPassword(ctx context.Context, username, email string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return "", apperr.New(apperr.Validation, "error_username_required")
	}
	if email == "" {
		return "", apperr.New(apperr.Validation, "error_email_required")
	}

	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.Validation, "error_account_not_found")
		}
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if !account.IsActive {
		return "", apperr.New(apperr.Validation, "error_account_not_activated")
	}
	if !strings.EqualFold(strings.TrimSpace(account.Email), email) {
		return "", apperr.New(apperr.Validation, "error_email_unknown")
	}

	// Reset codes carry no payload; the account row already exists.
	if err := s.issueOTP(ctx, account.Username, account.Email, nil); err != nil {
		return "", err
	}
	return "register_check_email", nil
}

// ResetPassword consumes a reset code and rewrites the password. In probe
// mode the database role password is updated alongside so future logins keep
// working.
func (s *Service) ResetPassword(ctx context.Context, username, code, newPassword string) (string, error) {
	username = strings.TrimSpace(username)

	otp, err := s.store.GetOTP(ctx, username, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.Validation, "error_otp_invalid")
		}
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if otp.Expired(s.now()) {
		return "", apperr.New(apperr.Validation, "error_otp_expired")
	}

	// The new password normally arrives in the request; a payload-carried
	// password is accepted as a fallback.
	if newPassword == "" && otp.RegPayload.Valid {
		var pending pendingRegistration
		if err := json.Unmarshal([]byte(otp.RegPayload.String), &pending); err == nil {
			newPassword = pending.Password
		}
	}
	if newPassword == "" {
		return "", apperr.New(apperr.Validation, "error_password_required")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if err := s.store.UpdatePassword(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.Validation, "error_account_not_found")
		}
		return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	if s.provision {
		if err := s.store.ProvisionDatabaseRole(ctx, username, newPassword); err != nil {
			return "", apperr.Wrap(apperr.Fatal, "error_internal", err)
		}
	}
	if err := s.store.DeleteOTPs(ctx, username); err != nil {
		slog.Error("otp_cleanup_failed", "username", username, "error", err)
	}
	slog.Info("password_reset", "username", username)
	return "reset_password_success", nil
}

// Logout drops the cached credentials for the token. The session column on
// the account row stays as is: the next login overwrites it, and that
// overwrite is what invalidates other devices.
func (s *Service) Logout(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.New(apperr.Unauthorized, "error_session_missing")
	}
	s.cache.Remove(token)
	slog.Info("logout", "token_prefix", tokenPrefix(token))
	return "logout_success", nil
}

// CheckSession reports whether the supplied token is the account's current
// one.
func (s *Service) CheckSession(ctx context.Context, username, token string) (bool, error) {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	if username == "" || token == "" {
		return false, nil
	}
	current, err := s.store.SessionToken(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperr.New(apperr.Unauthorized, "error_account_not_found")
		}
		return false, apperr.Wrap(apperr.Fatal, "error_internal", err)
	}
	return current != "" && current == token, nil
}

func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
