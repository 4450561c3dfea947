package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Identity resolution errors
	ErrUnsupportedRole = errors.New("unsupported role")
	ErrStaleIdentity   = errors.New("identity no longer exists for token role")

	// One-time-code ledger errors. Verify checks existence, then expiry,
	// then match; exactly one of these comes back on failure.
	ErrCodeNotFound = errors.New("no verification code issued for this email")
	ErrCodeExpired  = errors.New("verification code has expired")
	ErrCodeMismatch = errors.New("verification code does not match")
)
