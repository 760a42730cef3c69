package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrCodeNotFound       = errors.New("activation code not found")
	ErrCodeAlreadyUsed    = errors.New("activation code already used")
	ErrCodeExpired        = errors.New("activation code expired")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
