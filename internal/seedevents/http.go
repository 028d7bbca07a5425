package seedevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rift/pkg/logger"
)

// secretHeader carries the shared webhook secret.
const secretHeader = "X-RIFT-SECRET"

// HTTPClient wraps http.Client with timeout and the webhook secret
type HTTPClient struct {
	client *http.Client
	secret string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration, secret string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		secret: secret,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body and the secret header
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, c.secret)
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitEvents submits events concurrently using a worker pool
func submitEvents(ctx context.Context, config *Config, events []Event, stats *Stats) error {
	logger.Get().Info(ctx, "submitting events",
		logger.Int("count", len(events)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout, config.Secret)
	url := config.BaseURL + "/api/v1/webhook/ingest"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
		gold       int64
		xp         int64
	)

	eventChan := make(chan Event, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for event := range eventChan {
				select {
				case <-ctx.Done():
					return
				default:
					ack, result := submitSingleEvent(ctx, client, url, event)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
						atomic.AddInt64(&gold, int64(ack.GoldEarned))
						atomic.AddInt64(&xp, int64(ack.XPEarned))
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()

	wg.Wait()

	stats.EventsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsSuccessful = int(atomic.LoadInt64(&successful))
	stats.EventsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.EventsFailed = int(atomic.LoadInt64(&failed))
	stats.GoldAwarded = atomic.LoadInt64(&gold)
	stats.XPAwarded = atomic.LoadInt64(&xp)

	logger.Get().Info(ctx, "event submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed),
		logger.Int64("goldAwarded", stats.GoldAwarded),
		logger.Int64("xpAwarded", stats.XPAwarded))

	return nil
}

// submitSingleEvent submits a single event and classifies the outcome
func submitSingleEvent(ctx context.Context, client *HTTPClient, url string, event Event) (IngestAck, string) {
	resp, err := client.Post(ctx, url, event)
	if err != nil {
		return IngestAck{}, "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return IngestAck{}, "failed"
	}

	switch resp.StatusCode {
	case StatusCreated:
		var ack IngestAck
		_ = json.Unmarshal(body, &ack)
		return ack, "success"
	case StatusOK:
		var ack IngestAck
		_ = json.Unmarshal(body, &ack)
		return ack, "duplicate"
	default:
		return IngestAck{}, "failed"
	}
}
