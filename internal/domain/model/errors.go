package model

import "errors"

// Sentinel kinds for structural ticket failures.
var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidHint     = errors.New("invalid category hint")
	ErrInvalidDay      = errors.New("invalid event day")
	ErrUnknownCategory = errors.New("unknown category")
)
