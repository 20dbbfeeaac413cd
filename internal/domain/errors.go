package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("external service unavailable")

	// Redemption outcomes. ErrCodeInvalid leaves the stored code intact so the
	// caller may retry until expiry; ErrCodeExpired means the entry was removed
	// when touched.
	ErrCodeInvalid = errors.New("invalid code")
	ErrCodeExpired = errors.New("code expired")
)
