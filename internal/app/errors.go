package app

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ingestion and stats errors. The HTTP layer maps
// these to status codes with errors.Is; none may be silently downgraded.
var (
	// ErrUnauthorized means the shared secret did not match. The message
	// deliberately says nothing about which part of the input was wrong.
	ErrUnauthorized = errors.New("invalid webhook secret")

	// ErrValidation means the payload was malformed or out of range.
	ErrValidation = errors.New("validation failed")

	// ErrNoRule means the rules table has no mapping for the event type.
	// A server-side misconfiguration, surfaced so it can be fixed.
	ErrNoRule = errors.New("no gamification rule configured")

	// ErrInternal covers storage failures and other unexpected errors.
	ErrInternal = errors.New("internal error")

	// ErrNotStarted means the service was used before Start.
	ErrNotStarted = errors.New("service not started")
)

// invalidField tags a validation failure with the offending field.
func invalidField(field, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, msg)
}
