package core

import "errors"

// Errors
var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrSideMismatch       = errors.New("side mismatch")
	ErrNotFound           = errors.New("order not found")
	ErrNotActive          = errors.New("order not active")
	ErrAlreadyActive      = errors.New("order already active")
	ErrInsufficientVolume = errors.New("insufficient volume")
)
