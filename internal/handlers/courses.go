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

// ListCourses handles GET /api/courses. The catalog is public: with a valid
// session the query runs on the user's own connection, otherwise it falls
// back to the admin pool.
func (h *Handlers) ListCourses(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	search := c.QueryParam("search")
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	repo := h.repo
	if token := sessionToken(c); token != "" {
		conn, err := h.resolver.Resolve(c.Request().Context(), token)
		switch {
		case err == nil:
			defer func() { _ = conn.Close() }()
			repo = h.repo.On(conn.DB)
		case apperr.IsKind(err, apperr.Unauthorized):
			// Stale session on a public endpoint, serve from the admin pool.
		default:
			return respondError(c, err)
		}
	}

	courses, total, err := repo.ListCourses(c.Request().Context(), page, pageSize, search)
	if err != nil {
		return respondError(c, apperr.Wrap(apperr.Fatal, "error_internal", err))
	}
	if courses == nil {
		courses = []models.Course{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      courses,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCourse handles GET /api/courses/:id over the user connection.
func (h *Handlers) GetCourse(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, _ *userconn.UserConn) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return respondError(c, repository.ErrNotFound)
		}
		course, err := repo.GetCourse(c.Request().Context(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": course})
	})
}

// CreateCourse handles POST /api/courses.
func (h *Handlers) CreateCourse(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, _ *userconn.UserConn) error {
		var course models.Course
		if err := c.Bind(&course); err != nil {
			return respondError(c, apperr.New(apperr.Validation, "error_internal"))
		}
		if err := repo.CreateCourse(c.Request().Context(), &course); err != nil {
			return respondError(c, apperr.Wrap(apperr.Fatal, "error_internal", err))
		}
		return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": course})
	})
}

// UpdateCourse handles PUT /api/courses/:id.
func (h *Handlers) UpdateCourse(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, _ *userconn.UserConn) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return respondError(c, repository.ErrNotFound)
		}
		var course models.Course
		if err := c.Bind(&course); err != nil {
			return respondError(c, apperr.New(apperr.Validation, "error_internal"))
		}
		course.CourseID = id
		if err := repo.UpdateCourse(c.Request().Context(), &course); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": course})
	})
}

// DeleteCourse handles DELETE /api/courses/:id.
func (h *Handlers) DeleteCourse(c echo.Context) error {
	return h.withUserRepo(c, func(repo *repository.Repository, _ *userconn.UserConn) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return respondError(c, repository.ErrNotFound)
		}
		if err := repo.DeleteCourse(c.Request().Context(), id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})
}

// withUserRepo resolves the session into a user connection, hands a rebound
// repository to fn and closes the connection afterwards.
func (h *Handlers) withUserRepo(c echo.Context, fn func(*repository.Repository, *userconn.UserConn) error) error {
	conn, err := h.resolver.Resolve(c.Request().Context(), sessionToken(c))
	if err != nil {
		return respondError(c, err)
	}
	defer func() { _ = conn.Close() }()
	return fn(h.repo.On(conn.DB), conn)
}
