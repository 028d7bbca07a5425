package seedevents

import "time"

// Config holds configuration for the event seeding run
type Config struct {
	BaseURL    string        // Base URL of the service
	Secret     string        // Webhook secret presented on every ingest call
	NumEvents  int           // Number of events to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for events
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Event represents an activity event to be submitted
type Event struct {
	Source    string                 `json:"source"`
	EventType string                 `json:"event_type"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// IngestAck represents the response from event submission
type IngestAck struct {
	Status     string `json:"status"`
	EventID    string `json:"event_id"`
	GoldEarned int    `json:"gold_earned"`
	XPEarned   int    `json:"xp_earned"`
	Duplicate  bool   `json:"duplicate"`
}

// StatsSnapshot mirrors the derived-state response of the stats endpoint
type StatsSnapshot struct {
	TotalGold      int    `json:"total_gold"`
	TotalXP        int    `json:"total_xp"`
	CurrentLevel   int    `json:"current_level"`
	TotalEvents    int    `json:"total_events"`
	Rank           string `json:"rank"`
	CallsMade      int    `json:"calls_made"`
	CallsConnected int    `json:"calls_connected"`
	MeetingsBooked int    `json:"meetings_booked"`
}

// Stats holds run statistics
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	GoldAwarded      int64
	XPAwarded        int64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
