package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the services.  Handlers map these onto HTTP
// status codes with errors.Is; anything else is treated as ErrInternal.
var (
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrConflict     = errors.New("conflict")     // 409
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrBadRequest   = errors.New("bad request")  // 400
	ErrInternal     = errors.New("internal")     // 500
)

// Specific failures.  Their Message is what callers see.
var (
	ErrInvalidAdminKey = &Error{Kind: ErrForbidden, Message: "invalid admin key"}
	ErrUserExists      = &Error{Kind: ErrConflict, Message: "username or email already exists"}
	ErrUserNotFound    = &Error{Kind: ErrUnauthorized, Message: "user not found"}
	ErrInvalidPassword = &Error{Kind: ErrUnauthorized, Message: "invalid password"}
	ErrMissingFields   = &Error{Kind: ErrBadRequest, Message: "username, email and password are required"}
	ErrPasswordTooLong = &Error{Kind: ErrBadRequest, Message: "password too long"}
	ErrInvalidAction   = &Error{Kind: ErrBadRequest, Message: `action must be "on" or "off"`}
)

// Error pairs a taxonomy kind with a caller-safe message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// internal wraps a store or runtime failure.  The cause stays available to
// errors.Is/As and to logs, never to HTTP callers.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
