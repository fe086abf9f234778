package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrNoRun         = errors.New("region has not been run yet")
)
