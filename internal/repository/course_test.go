// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lqhuy/langcenter/internal/models"
	"github.com/lqhuy/langcenter/internal/repository"
)

func TestListCourses(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM courses`).
		WithArgs("%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT .+ FROM courses`).
		WithArgs("%%", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "course_code", "course_name", "description", "standard_fee"}).
			AddRow(int64(1), "ENG101", "General English", "", int64(2500000)).
			AddRow(int64(2), "IELTS01", "IELTS Foundation", "", int64(4800000)))

	courses, total, err := repo.ListCourses(context.Background(), 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, courses, 2)
	assert.Equal(t, "ENG101", courses[0].CourseCode)
}

func TestListCoursesSearch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM courses`).
		WithArgs("%ielts%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM courses`).
		WithArgs("%ielts%", 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "course_code", "course_name", "description", "standard_fee"}).
			AddRow(int64(2), "IELTS01", "IELTS Foundation", "", int64(4800000)))

	courses, total, err := repo.ListCourses(context.Background(), 2, 5, "ielts")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, "IELTS Foundation", courses[0].CourseName)
}

func TestCreateCourse(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO courses`).
		WithArgs("ENG101", "General English", "Beginner", int64(2500000)).
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow(int64(5)))

	course := &models.Course{CourseCode: "ENG101", CourseName: "General English", Description: "Beginner", StandardFee: 2500000}
	require.NoError(t, repo.CreateCourse(context.Background(), course))
	assert.Equal(t, int64(5), course.CourseID)
}

func TestUpdateCourseNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE courses SET`).
		WithArgs("ENG101", "General English", "", int64(0), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCourse(context.Background(), &models.Course{
		CourseID: 42, CourseCode: "ENG101", CourseName: "General English",
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteCourse(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM courses WHERE course_id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteCourse(context.Background(), 1))
}
