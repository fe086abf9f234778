package repository

import "errors"

// Sentinel errors for store operations.
var (
	ErrInvalidRegion = errors.New("region is required")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrClosed        = errors.New("store closed")
)
