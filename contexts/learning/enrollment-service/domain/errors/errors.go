package errors

import "errors"

var (
	ErrInvalidEnrollmentInput = errors.New("invalid enrollment input")
	ErrEnrollmentNotFound     = errors.New("enrollment not found")
	ErrEnrollmentExists       = errors.New("enrollment already exists")
)
