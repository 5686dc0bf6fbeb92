// Package apperror holds the error taxonomy shared by services and handlers.
package apperror

import "errors"

// Kinds. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOperation = errors.New("invalid operation")
)

// Error is a taxonomy error with a user-visible message
type Error struct {
	Kind    error
	Message string
	// Fields names the conflicting fields of a Conflict, e.g. {"email": "already taken"}
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFound creates an ErrNotFound error
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Conflict creates an ErrConflict error
func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// ConflictFields creates an ErrConflict error naming the offending fields
func ConflictFields(msg string, fields map[string]string) error {
	return &Error{Kind: ErrConflict, Message: msg, Fields: fields}
}

// Unauthorized creates an ErrUnauthorized error
func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// InvalidOperation creates an ErrInvalidOperation error
func InvalidOperation(msg string) error {
	return &Error{Kind: ErrInvalidOperation, Message: msg}
}

// Fields returns the conflict fields carried by err, if any
func Fields(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
