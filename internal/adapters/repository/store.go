// Package repository defines the event store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/rift/internal/domain/model"
	"github.com/okian/rift/internal/domain/types"
)

// Totals carries the lifetime aggregates computed in a single scan.
type Totals struct {
	TotalGold      int
	TotalXP        int
	TotalEvents    int
	CallsMade      int
	CallsConnected int
	MeetingsBooked int
}

// Store provides read/write access to events and gamification rules.
type Store interface {
	// InsertEvent appends a new event together with its audit-log row.
	// ID and CreatedAt are assigned at insert time when unset.
	InsertEvent(ctx context.Context, e *model.Event) error

	// FindRecentDuplicate returns the newest event with the same
	// (source, event_type) created at or after since.
	// Returns ErrNotFound when no such event exists.
	FindRecentDuplicate(ctx context.Context, source types.Source, eventType types.EventType, since time.Time) (model.Event, error)

	// RuleFor returns the reward rule for an event type.
	// Returns ErrNoRule when the rules table has no mapping.
	RuleFor(ctx context.Context, eventType types.EventType) (model.Rule, error)

	// SeedDefaultRules inserts the default reward rules, never
	// overwriting rows an administrator has already changed.
	SeedDefaultRules(ctx context.Context) error

	// UpdateRule saves administrative changes to a reward rule.
	UpdateRule(ctx context.Context, r model.Rule) error

	// AggregateTotals computes lifetime sums and per-type counts.
	AggregateTotals(ctx context.Context) (Totals, error)

	// CountEventsSince counts events created at or after since.
	CountEventsSince(ctx context.Context, since time.Time) (int64, error)

	// CountEventTypeSince counts events of one type created at or after since.
	CountEventTypeSince(ctx context.Context, eventType types.EventType, since time.Time) (int64, error)

	// EventsSince returns events created at or after since, oldest first.
	EventsSince(ctx context.Context, since time.Time) ([]model.Event, error)

	// CountEventsBefore counts events older than cutoff without touching
	// them. Backs the retention dry run.
	CountEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteEventsBefore removes events older than cutoff and returns the
	// number of rows deleted.
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountEvents returns the total number of stored events.
	CountEvents(ctx context.Context) (int64, error)

	// Ping verifies the underlying database connection.
	Ping(ctx context.Context) error
}
