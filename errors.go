package particles

import "errors"

// Errors returned from configuration and provider registration. Runtime GPU
// faults are never surfaced as errors from the frame path; see System.Frame.
var (
	ErrInvalidConfig      = errors.New("invalid system config")
	ErrProviderRegistered = errors.New("provider already registered")
	ErrProviderConflict   = errors.New("provider uniform conflict")
	ErrStopped            = errors.New("system is stopped")
)
