// Package app provides the core business service that implements
// the dependencies required by the HTTP API.
package app

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	repository "github.com/okian/rift/internal/adapters/repository"
	"github.com/okian/rift/internal/domain/model"
	"github.com/okian/rift/internal/domain/progression"
	"github.com/okian/rift/internal/domain/types"
	"github.com/okian/rift/pkg/logger"
	"github.com/okian/rift/pkg/metrics"
)

// Default service configuration.
const (
	defaultDedupeWindow     = 5 * time.Minute
	defaultMetadataMaxBytes = 5000
)

// IngestPayload is the raw input of one ingestion call, before validation.
type IngestPayload struct {
	Source    string
	EventType string
	Metadata  map[string]interface{}
}

// Service implements ingestion and stats aggregation over the event store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store

	// Configuration
	databaseURL      string
	secret           string
	dedupeWindow     time.Duration
	xpPerLevel       int
	metadataMaxBytes int
	loc              *time.Location
	dbMaxOpenConns   int
	dbMaxIdleConns   int

	// State
	started bool

	// Logging
	logger logger.Logger

	// now is the clock; replaced in tests.
	now func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDatabaseURL sets the event store DSN.
func WithDatabaseURL(dsn string) Option {
	return func(s *Service) {
		if dsn != "" {
			s.databaseURL = dsn
		}
	}
}

// WithStore injects an already-open store, skipping the DSN open on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWebhookSecret sets the shared secret ingestion calls must present.
func WithWebhookSecret(secret string) Option {
	return func(s *Service) {
		s.secret = secret
	}
}

// WithDedupeWindow sets the trailing duplicate-suppression window.
func WithDedupeWindow(window time.Duration) Option {
	return func(s *Service) {
		if window >= 0 {
			s.dedupeWindow = window
		}
	}
}

// WithXPPerLevel sets the XP required to advance one level.
func WithXPPerLevel(xp int) Option {
	return func(s *Service) {
		if xp > 0 {
			s.xpPerLevel = xp
		}
	}
}

// WithMetadataMaxBytes bounds the serialized size of event metadata.
func WithMetadataMaxBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.metadataMaxBytes = n
		}
	}
}

// WithLocation sets the zone used for day and week boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDBPool sets the store connection pool caps.
func WithDBPool(maxOpen, maxIdle int) Option {
	return func(s *Service) {
		if maxOpen > 0 {
			s.dbMaxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			s.dbMaxIdleConns = maxIdle
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the service clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		databaseURL:      "rift.db",
		dedupeWindow:     defaultDedupeWindow,
		xpPerLevel:       progression.DefaultXPPerLevel,
		metadataMaxBytes: defaultMetadataMaxBytes,
		loc:              time.UTC,
		logger:           nil, // Will be replaced when service starts
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the event store (unless one was injected) and seeds the
// default reward rules.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting gamification service...")

	if s.store == nil {
		store, err := repository.New(ctx, s.databaseURL,
			repository.WithMaxOpenConns(s.dbMaxOpenConns),
			repository.WithMaxIdleConns(s.dbMaxIdleConns),
		)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}

	if err := s.store.SeedDefaultRules(ctx); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}

	s.started = true
	s.logger.Info(ctx, "gamification service started",
		logger.Duration("dedupeWindow", s.dedupeWindow),
		logger.Int("xpPerLevel", s.xpPerLevel),
		logger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop marks the service stopped. The store connection is owned by the
// process and closed on exit.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "gamification service stopped")
}

// Ingest authenticates, validates, deduplicates, and persists one event,
// returning the reward granted. Duplicate suppression is a designed
// idempotent success, not an error.
func (s *Service) Ingest(ctx context.Context, secret string, payload IngestPayload) (types.IngestResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.IngestResult{}, ErrNotStarted
	}

	// Authentication comes first; nothing else runs on a mismatch.
	if !s.secretMatches(secret) {
		metrics.RecordIngestError("unauthorized")
		return types.IngestResult{}, ErrUnauthorized
	}

	source := types.Source(payload.Source)
	eventType := types.EventType(payload.EventType)
	if !source.Valid() {
		metrics.RecordIngestError("validation")
		return types.IngestResult{}, invalidField("source", "unknown source: "+payload.Source)
	}
	if !eventType.Valid() {
		metrics.RecordIngestError("validation")
		return types.IngestResult{}, invalidField("event_type", "unknown event type: "+payload.EventType)
	}

	metadata, err := s.marshalMetadata(payload.Metadata)
	if err != nil {
		metrics.RecordIngestError("validation")
		return types.IngestResult{}, err
	}

	now := s.now()

	// Duplicate suppression: a repeat of the same (source, event_type)
	// inside the window returns the existing event with zero reward.
	if s.dedupeWindow > 0 {
		dup, err := s.store.FindRecentDuplicate(ctx, source, eventType, now.Add(-s.dedupeWindow))
		switch {
		case err == nil:
			metrics.RecordDuplicateEvent()
			s.logger.Info(ctx, "duplicate event ignored",
				logger.String("source", payload.Source),
				logger.String("eventType", payload.EventType),
				logger.String("eventID", dup.ID),
			)
			return types.IngestResult{EventID: dup.ID, Duplicate: true}, nil
		case errors.Is(err, repository.ErrNotFound):
			// Fresh event; continue.
		default:
			metrics.RecordIngestError("internal")
			return types.IngestResult{}, fmt.Errorf("%w: duplicate check: %w", ErrInternal, err)
		}
	}

	rule, err := s.store.RuleFor(ctx, eventType)
	if err != nil {
		if errors.Is(err, repository.ErrNoRule) {
			metrics.RecordIngestError("no_rule")
			return types.IngestResult{}, fmt.Errorf("%w for event type: %s", ErrNoRule, payload.EventType)
		}
		metrics.RecordIngestError("internal")
		return types.IngestResult{}, fmt.Errorf("%w: rule lookup: %w", ErrInternal, err)
	}

	event := &model.Event{
		Source:    source,
		EventType: eventType,
		GoldValue: rule.GoldValue,
		XPValue:   rule.XPValue,
		Metadata:  metadata,
		CreatedAt: now.UTC(),
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		metrics.RecordIngestError("internal")
		return types.IngestResult{}, fmt.Errorf("%w: insert event: %w", ErrInternal, err)
	}

	metrics.RecordEventIngested(payload.Source, payload.EventType, rule.GoldValue, rule.XPValue)
	s.logger.Info(ctx, "event processed",
		logger.String("eventID", event.ID),
		logger.String("eventType", payload.EventType),
		logger.Int("gold", rule.GoldValue),
		logger.Int("xp", rule.XPValue),
	)

	return types.IngestResult{
		EventID:    event.ID,
		GoldEarned: rule.GoldValue,
		XPEarned:   rule.XPValue,
	}, nil
}

// secretMatches compares the supplied secret in constant time. A service
// with no secret configured rejects everything.
func (s *Service) secretMatches(secret string) bool {
	if s.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) == 1
}

// marshalMetadata serializes and bounds the free-form metadata document.
func (s *Service) marshalMetadata(md map[string]interface{}) (string, error) {
	if len(md) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return "", invalidField("metadata", "not serializable")
	}
	if len(raw) > s.metadataMaxBytes {
		return "", invalidField("metadata", fmt.Sprintf("too large (max %d bytes)", s.metadataMaxBytes))
	}
	return string(raw), nil
}

// CurrentStats recomputes every derived value from the event store.
// Nothing here is cached; repeated reads are cheap and side-effect-free.
func (s *Service) CurrentStats(ctx context.Context) (types.Stats, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.Stats{}, ErrNotStarted
	}

	totals, err := s.store.AggregateTotals(ctx)
	if err != nil {
		return types.Stats{}, fmt.Errorf("%w: totals: %w", ErrInternal, err)
	}

	now := s.now()
	eventsToday, err := s.store.CountEventsSince(ctx, progression.DayStart(now, s.loc))
	if err != nil {
		return types.Stats{}, fmt.Errorf("%w: events today: %w", ErrInternal, err)
	}
	weeklyMeetings, err := s.store.CountEventTypeSince(ctx, types.EventMeetingBooked, progression.WeekStart(now, s.loc))
	if err != nil {
		return types.Stats{}, fmt.Errorf("%w: weekly meetings: %w", ErrInternal, err)
	}

	lvl := progression.LevelFor(totals.TotalXP, s.xpPerLevel)
	rank := progression.RankFor(int(weeklyMeetings))

	metrics.UpdateCurrentLevel(lvl.Current)
	metrics.UpdateWeeklyMeetings(int(weeklyMeetings))

	return types.Stats{
		TotalGold:        totals.TotalGold,
		TotalXP:          totals.TotalXP,
		CurrentLevel:     lvl.Current,
		XPInCurrentLevel: lvl.XPInLevel,
		XPToNextLevel:    lvl.XPToNext,
		EventsToday:      int(eventsToday),
		TotalEvents:      totals.TotalEvents,
		Rank:             rank,
		CallsMade:        totals.CallsMade,
		CallsConnected:   totals.CallsConnected,
		MeetingsBooked:   totals.MeetingsBooked,
	}, nil
}

// DailyStats buckets the last `days` calendar days of events in the
// configured zone, newest day first. Days without events are omitted,
// matching the reporting layer's GROUP BY semantics.
func (s *Service) DailyStats(ctx context.Context, days int) ([]types.DailyStat, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if days < 1 {
		return nil, invalidField("days", "must be positive")
	}

	cutoff := progression.DayStart(s.now(), s.loc).AddDate(0, 0, -(days - 1))
	events, err := s.store.EventsSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: daily stats: %w", ErrInternal, err)
	}

	byDay := make(map[string]*types.DailyStat)
	for _, e := range events {
		day := e.CreatedAt.In(s.loc).Format("2006-01-02")
		stat, ok := byDay[day]
		if !ok {
			stat = &types.DailyStat{Date: day}
			byDay[day] = stat
		}
		stat.TotalEvents++
		stat.TotalGold += e.GoldValue
		stat.TotalXP += e.XPValue
		switch e.EventType {
		case types.EventCallDial:
			stat.CallsMade++
		case types.EventCallConnect:
			stat.CallsConnected++
		case types.EventMeetingBooked:
			stat.MeetingsBooked++
		}
	}

	out := make([]types.DailyStat, 0, len(byDay))
	for _, stat := range byDay {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// CountOldEvents reports how many events a cleanup with the same
// threshold would delete, without deleting anything.
func (s *Service) CountOldEvents(ctx context.Context, olderThanDays int) (int64, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return 0, ErrNotStarted
	}
	if olderThanDays < 1 {
		return 0, invalidField("olderThanDays", "must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	n, err := s.store.CountEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: count old events: %w", ErrInternal, err)
	}
	return n, nil
}

// CleanupOldEvents deletes events older than the given age threshold and
// returns the number of rows removed.
func (s *Service) CleanupOldEvents(ctx context.Context, olderThanDays int) (int64, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return 0, ErrNotStarted
	}
	if olderThanDays < 1 {
		return 0, invalidField("olderThanDays", "must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.store.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup: %w", ErrInternal, err)
	}
	s.logger.Info(ctx, "old events deleted",
		logger.Int64("deleted", deleted),
		logger.Int("olderThanDays", olderThanDays),
	)
	return deleted, nil
}

// Health verifies the event store connection.
func (s *Service) Health(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"dedupeWindowSecs": int(s.dedupeWindow.Seconds()),
		"xpPerLevel":       s.xpPerLevel,
	}

	if s.started {
		if n, err := s.store.CountEvents(ctx); err == nil {
			stats["totalEvents"] = n
			metrics.UpdateTotalEvents(n)
		}
	}

	return stats
}
