package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account management errors
	ErrLastAdmin    = errors.New("cannot delete the last administrator")
	ErrWeakPassword = errors.New("password does not meet requirements")

	// Registration errors
	ErrUnderage        = errors.New("attendee is below the minimum age")
	ErrPhoneRegistered = errors.New("phone number already registered")
)
