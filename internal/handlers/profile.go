// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/repository"
	"github.com/lqhuy/langcenter/internal/userconn"
)

// Profile handles GET /api/profile: the student row of the session user, read
// over their own connection.
func (h *Handlers) Profile(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, conn *userconn.UserConn) error {
		student, err := repo.GetStudentByUsername(c.Request().Context(), conn.Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": student})
	})
}

type profileUpdateRequest struct {
	FullName    string     `json:"full_name"`
	Sex         *string    `json:"sex"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	PhoneNumber *string    `json:"phone_number"`
	Address     *string    `json:"address"`
}

// UpdateProfile handles PUT /api/profile. The row-level grants limit the
// update to the user's own student row.
func (h *Handlers) UpdateProfile(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, conn *userconn.UserConn) error {
		var req profileUpdateRequest
		if err := c.Bind(&req); err != nil {
			return respondError(c, apperr.New(apperr.Validation, "error_internal"))
		}

		student, err := repo.GetStudentByUsername(c.Request().Context(), conn.Username)
		if err != nil {
			return respondError(c, err)
		}

		if req.FullName != "" {
			student.FullName = req.FullName
		}
		if req.Sex != nil {
			student.Sex = sql.NullString{String: *req.Sex, Valid: true}
		}
		if req.DateOfBirth != nil {
			student.DateOfBirth = sql.NullTime{Time: *req.DateOfBirth, Valid: true}
		}
		if req.PhoneNumber != nil {
			student.PhoneNumber = sql.NullString{String: *req.PhoneNumber, Valid: true}
		}
		if req.Address != nil {
			student.Address = sql.NullString{String: *req.Address, Valid: true}
		}

		if err := repo.UpdateStudent(c.Request().Context(), student); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": student})
	})
}
