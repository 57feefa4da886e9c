package errors

import "errors"

var (
	ErrInvalidProfileInput     = errors.New("invalid profile input")
	ErrProfileNotFound         = errors.New("profile not found")
	ErrProfileAlreadyCompleted = errors.New("profile already completed")
)
