package repository

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrNotFound = errors.New("event not found")
	ErrNoRule   = errors.New("no gamification rule for event type")
	ErrOpen     = errors.New("open event store failed")
)
