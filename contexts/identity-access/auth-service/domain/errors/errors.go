package errors

import "errors"

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAccountNotFound = errors.New("account not found")
)
