// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/lqhuy/langcenter/internal/models"
)

const courseColumns = `course_id, course_code, course_name, description, standard_fee`

// ListCourses returns one page of the course catalog plus the total count.
// An empty search matches everything.
func (r *Repository) ListCourses(ctx context.Context, page, pageSize int, search string) ([]models.Course, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	pattern := "%" + search + "%"

	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT count(*) FROM courses
		  WHERE $1 = '%%' OR course_name ILIKE $1 OR course_code ILIKE $1`, pattern)
	if err != nil {
		return nil, 0, err
	}

	var courses []models.Course
	err = r.db.SelectContext(ctx, &courses,
		`SELECT `+courseColumns+` FROM courses
		  WHERE $1 = '%%' OR course_name ILIKE $1 OR course_code ILIKE $1
		  ORDER BY course_id
		  LIMIT $2 OFFSET $3`, pattern, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// GetCourse retrieves a course by id.
func (r *Repository) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	err := r.db.GetContext(ctx, &course,
		`SELECT `+courseColumns+` FROM courses WHERE course_id = $1`, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &course, nil
}

// CreateCourse inserts a course and fills in its generated id.
func (r *Repository) CreateCourse(ctx context.Context, course *models.Course) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO courses (course_code, course_name, description, standard_fee)
		 VALUES ($1, $2, $3, $4)
		 RETURNING course_id`,
		course.CourseCode, course.CourseName, course.Description, course.StandardFee,
	).Scan(&course.CourseID)
}

// UpdateCourse rewrites a course row.
func (r *Repository) UpdateCourse(ctx context.Context, course *models.Course) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET course_code = $1, course_name = $2, description = $3, standard_fee = $4
		  WHERE course_id = $5`,
		course.CourseCode, course.CourseName, course.Description, course.StandardFee, course.CourseID)
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

// DeleteCourse removes a course by id.
func (r *Repository) DeleteCourse(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, id)
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
