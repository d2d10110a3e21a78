// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"student_id", "full_name", "student_code", "sex", "date_of_birth", "phone_number", "address",
	})
}

func TestListStudents(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM students`).
		WithArgs("%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT .+ FROM students`).
		WithArgs("%%", 10, 0).
		WillReturnRows(studentRows().
			AddRow(int64(7), "Alice Nguyen", "HV000007", nil, nil, nil, nil).
			AddRow(int64(8), "Bob Tran", "HV000008", nil, nil, nil, nil))

	students, total, err := repo.ListStudents(context.Background(), 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, students, 2)
	assert.Equal(t, "HV000007", students[0].StudentCode)
}

func TestListStudentsSearch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM students`).
		WithArgs("%alice%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM students`).
		WithArgs("%alice%", 5, 5).
		WillReturnRows(studentRows().
			AddRow(int64(7), "Alice Nguyen", "HV000007", nil, nil, nil, nil))

	students, total, err := repo.ListStudents(context.Background(), 2, 5, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, students, 1)
	assert.Equal(t, "Alice Nguyen", students[0].FullName)
}
