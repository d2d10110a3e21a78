// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"

	"github.com/lqhuy/langcenter/internal/models"
)

const studentColumns = `student_id, full_name, student_code, sex, date_of_birth, phone_number, address`

// ListStudents returns one page of student profiles plus the total count.
// An empty search matches everything.
func (r *Repository) ListStudents(ctx context.Context, page, pageSize int, search string) ([]models.Student, int, error) {
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
		`SELECT count(*) FROM students
		  WHERE $1 = '%%' OR full_name ILIKE $1 OR student_code ILIKE $1`, pattern)
	if err != nil {
		return nil, 0, err
	}

	var students []models.Student
	err = r.db.SelectContext(ctx, &students,
		`SELECT `+studentColumns+` FROM students
		  WHERE $1 = '%%' OR full_name ILIKE $1 OR student_code ILIKE $1
		  ORDER BY student_id
		  LIMIT $2 OFFSET $3`, pattern, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// GetStudent retrieves a student profile by account id.
func (r *Repository) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	err := r.db.GetContext(ctx, &student,
		`SELECT `+studentColumns+` FROM students WHERE student_id = $1`, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &student, nil
}

// GetStudentByUsername retrieves the profile joined through the account row.
func (r *Repository) GetStudentByUsername(ctx context.Context, username string) (*models.Student, error) {
	var student models.Student
	err := r.db.GetContext(ctx, &student,
		`SELECT s.student_id, s.full_name, s.student_code, s.sex, s.date_of_birth, s.phone_number, s.address
		   FROM students s
		   JOIN accounts a ON a.user_id = s.student_id
		  WHERE lower(a.username) = lower($1)`,
		strings.TrimSpace(username))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &student, nil
}

// UpdateStudent rewrites the mutable profile fields.
func (r *Repository) UpdateStudent(ctx context.Context, student *models.Student) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET full_name = $1, sex = $2, date_of_birth = $3, phone_number = $4, address = $5
		  WHERE student_id = $6`,
		student.FullName, student.Sex, student.DateOfBirth, student.PhoneNumber, student.Address,
		student.StudentID)
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
