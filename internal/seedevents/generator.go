package seedevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/okian/rift/pkg/logger"
)

// Weighted event mix, out of 100. Dials dominate a real SDR day; attended
// meetings are rare.
const (
	weightCallDial      = 50
	weightCallConnect   = 20
	weightEmailSent     = 25
	weightMeetingBooked = 4
)

// Source mix, out of 100.
const (
	weightOutreach = 40
	weightNooks    = 35
	weightManual   = 15
)

var prospectNames = []string{
	"Jordan Mills", "Avery Chen", "Sam Okafor", "Riley Nguyen",
	"Casey Bright", "Morgan Patel", "Drew Lawson", "Taylor Kim",
	"Quinn Harper", "Jamie Ortiz", "Reese Caldwell", "Skyler Boone",
}

var prospectCompanies = []string{
	"Acme Logistics", "Northwind Labs", "Bluepeak Software", "Corewave",
	"Helix Manufacturing", "Summit Dental Group", "Irongate Security",
	"Brightline Media", "Pioneer Freight", "Copperfield Analytics",
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateEvents creates the requested number of weighted activity events.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, error) {
	logger.Get().Info(ctx, "generating activity events", logger.Int("numEvents", config.NumEvents))

	events := make([]Event, config.NumEvents)

	type eventResult struct {
		index int
		event Event
		err   error
	}

	resultChan := make(chan eventResult, config.NumEvents)

	workerCount := minInt(config.Workers, config.NumEvents)
	eventsPerWorker := config.NumEvents / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * eventsPerWorker
		end := start + eventsPerWorker
		if worker == workerCount-1 {
			end = config.NumEvents // Last worker gets remaining events
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- eventResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- eventResult{index: i, event: generateSingleEvent()}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate event %d: %w", result.index, result.err)
			}
			events[result.index] = result.event
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, nil
}

// generateSingleEvent creates one weighted activity event with prospect
// metadata of the shape the CRM connectors send.
func generateSingleEvent() Event {
	eventType := pickEventType()
	metadata := map[string]interface{}{
		"prospect_name":    prospectNames[randomInt(len(prospectNames))],
		"prospect_company": prospectCompanies[randomInt(len(prospectCompanies))],
	}
	if eventType == "call_dial" || eventType == "call_connect" {
		metadata["duration_seconds"] = randomInt(600)
	}

	return Event{
		Source:    pickSource(),
		EventType: eventType,
		Metadata:  metadata,
	}
}

// pickEventType rolls the weighted event mix.
func pickEventType() string {
	roll := randomInt(100)
	switch {
	case roll < weightCallDial:
		return "call_dial"
	case roll < weightCallDial+weightCallConnect:
		return "call_connect"
	case roll < weightCallDial+weightCallConnect+weightEmailSent:
		return "email_sent"
	case roll < weightCallDial+weightCallConnect+weightEmailSent+weightMeetingBooked:
		return "meeting_booked"
	default:
		return "meeting_attended"
	}
}

// pickSource rolls the weighted source mix.
func pickSource() string {
	roll := randomInt(100)
	switch {
	case roll < weightOutreach:
		return "outreach"
	case roll < weightOutreach+weightNooks:
		return "nooks"
	case roll < weightOutreach+weightNooks+weightManual:
		return "manual"
	default:
		return "zapier"
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
