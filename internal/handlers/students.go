// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lqhuy/langcenter/internal/apperr"
	"github.com/lqhuy/langcenter/internal/models"
	"github.com/lqhuy/langcenter/internal/repository"
	"github.com/lqhuy/langcenter/internal/userconn"
)

// ListStudents handles GET /api/students over the user connection. The
// database's own grants decide which rows the session's user may read.
func (h *Handlers) ListStudents(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, _ *userconn.UserConn) error {
		page, _ := strconv.Atoi(c.QueryParam("page"))
		pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
		search := c.QueryParam("search")
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		students, total, err := repo.ListStudents(c.Request().Context(), page, pageSize, search)
		if err != nil {
			return respondError(c, apperr.Wrap(apperr.Fatal, "error_internal", err))
		}
		if students == nil {
			students = []models.Student{}
		}

		return c.JSON(http.StatusOK, echo.Map{
			"success":   true,
			"data":      students,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	})
}
