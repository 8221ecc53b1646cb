package domain

import "errors"

// Sentinel errors for the failure taxonomy. Services wrap these with context
// via fmt.Errorf("%w: ...") and the HTTP layer maps them to status codes.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
