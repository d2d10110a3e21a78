// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/i18n"
	"github.com/lqhuy/langcenter/internal/repository"
)

// respondError converts a service error into a JSON error response. The body
// carries only the localized catalog message; raw error detail goes to the
// log.
func respondError(c echo.Context, err error) error {
	ctx := c.Request().Context()

	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": i18n.T(ctx, "error_not_found"),
		})
	}

	kind := apperr.KindOf(err)
	if kind == apperr.Fatal {
		slog.Error("request_failed", "path", c.Path(), "error", err)
	}

	return c.JSON(statusFor(kind), echo.Map{
		"success": false,
		"message": i18n.T(ctx, apperr.MessageOf(err)),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Validation, apperr.Conflict:
		return http.StatusBadRequest
	case apperr.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondMessage is the uniform success envelope for operations whose result
// is just a confirmation.
func respondMessage(c echo.Context, messageID string) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": i18n.T(c.Request().Context(), messageID),
	})
}
