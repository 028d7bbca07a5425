// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/rift/internal/domain/types"
)

// Event is one immutable record of an ingested sales activity.
// GoldValue and XPValue are snapshots of the rule in effect at ingestion
// time; later rule changes never alter existing events.
type Event struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Source    types.Source    `gorm:"size:32;index:idx_events_dedupe,priority:1" json:"source"`
	EventType types.EventType `gorm:"size:50;index:idx_events_dedupe,priority:2" json:"event_type"`
	GoldValue int             `json:"gold_value"`
	XPValue   int             `gorm:"column:xp_value" json:"xp_value"`
	Metadata  string          `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time       `gorm:"index:idx_events_dedupe,priority:3;index:idx_events_created" json:"created_at"`
}

// TableName pins the table name expected by existing deployments.
func (Event) TableName() string { return "raw_events" }

// Rule maps an event type to the reward it grants.
type Rule struct {
	EventType   types.EventType `gorm:"primaryKey;size:50" json:"event_type"`
	GoldValue   int             `json:"gold_value"`
	XPValue     int             `gorm:"column:xp_value" json:"xp_value"`
	DisplayName string          `gorm:"size:100" json:"display_name"`
	Description string          `gorm:"size:255" json:"description"`
}

// TableName pins the table name expected by existing deployments.
func (Rule) TableName() string { return "gamification_rules" }

// EventLog is an append-only audit row recorded alongside event writes.
type EventLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string    `gorm:"size:36;index" json:"event_id"`
	Action    string    `gorm:"size:32" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the table name expected by existing deployments.
func (EventLog) TableName() string { return "event_log" }
