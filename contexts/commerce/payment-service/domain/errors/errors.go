package errors

import "errors"

var (
	ErrInvalidPaymentInput = errors.New("invalid payment input")
	ErrPaymentNotFound     = errors.New("payment not found")
)
