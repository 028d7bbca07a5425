package seedevents

import "time"

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	// Ingestion is synchronous, a short settle delay is enough before
	// reading the stats back.
	StatsSettleDelay     = 2 * time.Second
	PercentageMultiplier = 100
)
