// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package models holds the row types mapped from the database schema.
package models

import (
	"database/sql"
	"time"
)

// Role is a lookup entity referenced by Account. Read-only at runtime apart
// from the seeded rows.
type Role struct {
	ID   int64  `db:"role_id" json:"role_id"`
	Name string `db:"role_name" json:"role_name"`
}

// Role names seeded by the migrations.
const (
	RoleStudent       = "hoc_vien"
	RoleTeacher       = "giao_vien"
	RoleAcademicStaff = "hoc_vu"
	RoleAccountant    = "ke_toan"
	RoleAdmin         = "quan_tri"
)

// Account is the identity record. CurrentSessionToken holds the single valid
// session token for the account, or NULL before the first login.
type Account struct {
	UserID              int64          `db:"user_id" json:"user_id"`
	Username            string         `db:"username" json:"username"`
	Email               string         `db:"email" json:"email"`
	Password            string         `db:"password" json:"-"`
	RoleID              int64          `db:"role_id" json:"role_id"`
	IsActive            bool           `db:"is_active" json:"is_active"`
	CurrentSessionToken sql.NullString `db:"current_session_token" json:"-"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// OtpCode is a pending one-time code, optionally carrying the serialized
// registration payload replayed when the code is verified. Password-reset
// codes have a NULL payload.
type OtpCode struct {
	Username   string         `db:"username" json:"username"`
	Code       string         `db:"otp_code" json:"-"`
	ExpiresAt  time.Time      `db:"expires_at" json:"expires_at"`
	RegPayload sql.NullString `db:"reg_payload" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (o *OtpCode) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Student is the profile row created together with a student account. Its
// primary key is the owning account's user id.
type Student struct {
	StudentID   int64          `db:"student_id" json:"student_id"`
	FullName    string         `db:"full_name" json:"full_name"`
	StudentCode string         `db:"student_code" json:"student_code"`
	Sex         sql.NullString `db:"sex" json:"sex"`
	DateOfBirth sql.NullTime   `db:"date_of_birth" json:"date_of_birth"`
	PhoneNumber sql.NullString `db:"phone_number" json:"phone_number"`
	Address     sql.NullString `db:"address" json:"address"`
}

// Course is a catalog entry.
type Course struct {
	CourseID    int64  `db:"course_id" json:"course_id"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	Description string `db:"description" json:"description"`
	StandardFee int64  `db:"standard_fee" json:"standard_fee"`
}

// Class is a scheduled instance of a course.
type Class struct {
	ClassID   int64         `db:"class_id" json:"class_id"`
	ClassCode string        `db:"class_code" json:"class_code"`
	ClassName string        `db:"class_name" json:"class_name"`
	StartDate sql.NullTime  `db:"start_date" json:"start_date"`
	EndDate   sql.NullTime  `db:"end_date" json:"end_date"`
	MaxSize   int           `db:"max_size" json:"max_size"`
	CourseID  int64         `db:"course_id" json:"course_id"`
	TeacherID sql.NullInt64 `db:"teacher_id" json:"teacher_id"`
}

// Registration links a student to a class.
type Registration struct {
	RegistrationID   int64     `db:"registration_id" json:"registration_id"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	Status           string    `db:"status" json:"status"`
	StudentID        int64     `db:"student_id" json:"student_id"`
	ClassID          int64     `db:"class_id" json:"class_id"`
}

// Invoice bills a registration.
type Invoice struct {
	InvoiceID      int64        `db:"invoice_id" json:"invoice_id"`
	InvoiceCode    string       `db:"invoice_code" json:"invoice_code"`
	CreatedDate    time.Time    `db:"created_date" json:"created_date"`
	DueDate        sql.NullTime `db:"due_date" json:"due_date"`
	Amount         int64        `db:"amount" json:"amount"`
	Status         string       `db:"status" json:"status"`
	RegistrationID int64        `db:"registration_id" json:"registration_id"`
}

// Payment settles an invoice, fully or in part.
type Payment struct {
	PaymentID     int64     `db:"payment_id" json:"payment_id"`
	PaymentDate   time.Time `db:"payment_date" json:"payment_date"`
	Amount        int64     `db:"amount" json:"amount"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	InvoiceID     int64     `db:"invoice_id" json:"invoice_id"`
}

// UserInfo is the profile payload returned by login and registration.
type UserInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}
