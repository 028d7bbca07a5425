// Package types contains common types used across the application
package types

// Source identifies the origin system of an ingested event.
type Source string

// Allowed event sources.
const (
	SourceOutreach Source = "outreach"
	SourceNooks    Source = "nooks"
	SourceManual   Source = "manual"
	SourceZapier   Source = "zapier"
)

// EventType identifies the kind of sales activity an event records.
type EventType string

// Allowed event types.
const (
	EventCallDial        EventType = "call_dial"
	EventCallConnect     EventType = "call_connect"
	EventEmailSent       EventType = "email_sent"
	EventMeetingBooked   EventType = "meeting_booked"
	EventMeetingAttended EventType = "meeting_attended"
)

// Sources lists every allowed source in a stable order.
func Sources() []Source {
	return []Source{SourceOutreach, SourceNooks, SourceManual, SourceZapier}
}

// EventTypes lists every allowed event type in a stable order.
func EventTypes() []EventType {
	return []EventType{
		EventCallDial,
		EventCallConnect,
		EventEmailSent,
		EventMeetingBooked,
		EventMeetingAttended,
	}
}

// Valid reports whether s is one of the allowed sources.
func (s Source) Valid() bool {
	switch s {
	case SourceOutreach, SourceNooks, SourceManual, SourceZapier:
		return true
	}
	return false
}

// Valid reports whether t is one of the allowed event types.
func (t EventType) Valid() bool {
	switch t {
	case EventCallDial, EventCallConnect, EventEmailSent, EventMeetingBooked, EventMeetingAttended:
		return true
	}
	return false
}

// Stats is the derived-state snapshot returned by GET /api/v1/stats/current.
// Every field is recomputed from the event store on each read.
type Stats struct {
	TotalGold        int    `json:"total_gold"`
	TotalXP          int    `json:"total_xp"`
	CurrentLevel     int    `json:"current_level"`
	XPInCurrentLevel int    `json:"xp_in_current_level"`
	XPToNextLevel    int    `json:"xp_to_next_level"`
	EventsToday      int    `json:"events_today"`
	TotalEvents      int    `json:"total_events"`
	Rank             string `json:"rank"`
	CallsMade        int    `json:"calls_made"`
	CallsConnected   int    `json:"calls_connected"`
	MeetingsBooked   int    `json:"meetings_booked"`
}

// DailyStat is one row of the per-day activity breakdown.
type DailyStat struct {
	Date           string `json:"date"`
	TotalEvents    int    `json:"total_events"`
	TotalGold      int    `json:"total_gold"`
	TotalXP        int    `json:"total_xp"`
	CallsMade      int    `json:"calls_made"`
	CallsConnected int    `json:"calls_connected"`
	MeetingsBooked int    `json:"meetings_booked"`
}

// IngestResult is the outcome of one ingestion call.
type IngestResult struct {
	EventID    string `json:"event_id"`
	GoldEarned int    `json:"gold_earned"`
	XPEarned   int    `json:"xp_earned"`
	Duplicate  bool   `json:"duplicate"`
}
