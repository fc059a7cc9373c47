package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Store Errors
	ErrDuplicateEntry    = errors.New("trade id already exists")
	ErrPersistFailed     = errors.New("failed to persist trade collection")
	ErrReentrantMutation = errors.New("store mutated from inside its own observer")

	// Storage Specific Errors
	ErrStorageConnection = errors.New("storage connection error")
	ErrQueryFailed       = errors.New("storage query failed")
	ErrUpdateFailed      = errors.New("storage update failed")
	ErrDeleteFailed      = errors.New("storage delete failed")
)
