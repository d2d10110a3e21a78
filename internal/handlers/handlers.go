// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP layer: request binding, session token
// extraction and mapping service errors to JSON responses.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lqhuy/langcenter/internal/repository"
	"github.com/lqhuy/langcenter/internal/services/auth"
	"github.com/lqhuy/langcenter/internal/userconn"
)

// SessionHeader carries the opaque session token on authenticated requests.
const SessionHeader = "X-Session-Id"

// AuthService is the auth surface the handlers call. *auth.Service satisfies
// it.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	Register(ctx context.Context, req auth.RegisterRequest) (string, error)
	VerifyOTP(ctx context.Context, username, code string) (string, error)
	ResendOTP(ctx context.Context, username string) (string, error)
	ForgotPassword(ctx context.Context, username, email string) (string, error)
	ResetPassword(ctx context.Context, username, code, newPassword string) (string, error)
	Logout(ctx context.Context, token string) (string, error)
	CheckSession(ctx context.Context, username, token string) (bool, error)
}

// ConnResolver turns a session token into a user-scoped connection.
// *userconn.Resolver satisfies it.
type ConnResolver interface {
	Resolve(ctx context.Context, token string) (*userconn.UserConn, error)
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo     *repository.Repository
	auth     AuthService
	resolver ConnResolver
}

// New creates a new Handlers instance. repo runs on the admin pool; handlers
// rebind it to user connections resolved per request.
func New(repo *repository.Repository, authSvc AuthService, resolver ConnResolver) *Handlers {
	return &Handlers{repo: repo, auth: authSvc, resolver: resolver}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// sessionToken pulls the session token from the request: header first, then
// the sessionId query parameter used by check-session.
func sessionToken(c echo.Context) string {
	if token := strings.TrimSpace(c.Request().Header.Get(SessionHeader)); token != "" {
		return token
	}
	return strings.TrimSpace(c.QueryParam("sessionId"))
}
