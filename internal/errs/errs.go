// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrUnauthenticated indicates a missing, malformed, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTokenExpired indicates a token whose expiry has passed. Mapped to the
	// same HTTP status as ErrUnauthenticated; kept distinct for logging.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a token that failed signature or claim checks.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrForbidden indicates a valid identity with insufficient ownership.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist, or a
	// state-gated transition matched no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation (username/email taken).
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates a malformed request payload.
	ErrValidation = errors.New("validation failed")
)
