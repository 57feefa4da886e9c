package errors

import "errors"

var (
	ErrInvalidQuery       = errors.New("invalid analytics query")
	ErrInstructorNotFound = errors.New("instructor stats not found")
	ErrProgressNotFound   = errors.New("enrollment progress not found")
)
