// Copyright 2025 The langcenter Authors
// Licensed under the EUPL-1.2

// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP layer and for callers that need to
// distinguish "log in again" from "something broke".
type Kind int

const (
	// Unauthorized covers bad credentials and missing, expired or
	// mismatched session tokens.
	Unauthorized Kind = iota
	// Validation covers malformed or incomplete input. Never touches the
	// database.
	Validation
	// Conflict covers duplicate usernames or email addresses.
	Conflict
	// Transient covers contention that is expected to clear, such as a
	// row lock held by a concurrent login.
	Transient
	// Fatal covers unexpected row counts, lost connectivity and anything
	// else that should never happen.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case Transient:
		return "transient"
	default:
		return "fatal"
	}
}

// Error is a tagged error carrying a message key resolved through the i18n
// catalog at the HTTP boundary.
type Error struct {
	Kind    Kind
	Message string // i18n message ID
	Err     error  // wrapped cause, logged but never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a tagged error without a wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Fatal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Fatal
}

// IsKind reports whether err is tagged with the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the message ID of err, or a generic fallback for
// untagged errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "error_internal"
}
