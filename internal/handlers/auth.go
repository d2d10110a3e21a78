// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/i18n"
	"github.com/lqhuy/langcenter/internal/services/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Validation, "error_internal"))
	}

	result, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    i18n.T(c.Request().Context(), "login_success"),
		"token":      result.BearerToken,
		"session_id": result.SessionToken,
		"user":       result.User,
	})
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c echo.Context) error {
	var req auth.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Validation, "error_internal"))
	}

	msg, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, msg)
}

type otpRequest struct {
	Username string `json:"username"`
	OtpCode  string `json:"otp_code"`
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *Handlers) VerifyOTP(c echo.Context) error {
	var req otpRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Validation, "error_otp_invalid"))
	}

	msg, err := h.auth.VerifyOTP(c.Request().Context(), req.Username, req.OtpCode)
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, msg)
}

type usernameRequest struct {
	Username string `json:"username"`
}

// ResendOTP handles POST /api/auth/resend-otp.
func (h *Handlers) ResendOTP(c echo.Context) error {
	var req usernameRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Validation, "error_username_required"))
	}

	msg, err := h.auth.ResendOTP(c.Request().Context(), req.Username)
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, msg)
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Validation, "error_username_required"))
	}

	msg, err := h.auth.ForgotPassword(c.Request().Context(), req.Username, req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, msg)
}

type resetPasswordRequest struct {
	Username    string `json:"username"`
	OtpCode     string `json:"otp_code"`
	NewPassword string `json:"new_password"`
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Validation, "error_password_required"))
	}

	msg, err := h.auth.ResetPassword(c.Request().Context(), req.Username, req.OtpCode, req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, msg)
}

// Logout handles POST /api/auth/logout. The token comes from the
// X-Session-Id header.
func (h *Handlers) Logout(c echo.Context) error {
	msg, err := h.auth.Logout(c.Request().Context(), sessionToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, msg)
}

// CheckSession handles GET /api/auth/check-session?username=&sessionId=.
func (h *Handlers) CheckSession(c echo.Context) error {
	valid, err := h.auth.CheckSession(c.Request().Context(), c.QueryParam("username"), sessionToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"valid":   valid,
	})
}
