package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/rift/internal/domain/model"
	"github.com/okian/rift/internal/domain/types"
	"github.com/okian/rift/pkg/metrics"
)

// Default connection pool settings.
const (
	defaultMaxOpenConns = 10
	defaultMaxIdleConns = 2
	connMaxLifetime     = time.Hour
)

// GormStore implements Store on top of a relational database.
// Postgres in production, sqlite for local runs and tests.
type GormStore struct {
	db *gorm.DB

	maxOpenConns int
	maxIdleConns int
}

// compile-time interface check.
var _ Store = (*GormStore)(nil)

// New opens the database named by dsn, runs migrations, and returns a store.
func New(ctx context.Context, dsn string, opts ...Option) (*GormStore, error) {
	s := &GormStore{
		maxOpenConns: defaultMaxOpenConns,
		maxIdleConns: defaultMaxIdleConns,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetMaxIdleConns(s.maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	s.db = db
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already-open gorm handle. Used by tests and tools
// that manage the connection themselves. Migrations still run.
func NewWithDB(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	s := &GormStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// dialectorFor picks the driver from the DSN shape: postgres URLs and
// key=value DSNs go to the postgres driver, anything else is a sqlite path.
func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func (s *GormStore) migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&model.Event{},
		&model.Rule{},
		&model.EventLog{},
	)
	if err != nil {
		return fmt.Errorf("%w: migration: %w", ErrOpen, err)
	}
	return nil
}

// defaultRules are the rewards seeded on first start. call_dial grants
// 10 gold / 5 XP; the rest follow the same SDR weighting.
func defaultRules() []model.Rule {
	return []model.Rule{
		{EventType: types.EventCallDial, GoldValue: 10, XPValue: 5, DisplayName: "Call Dialed", Description: "An outbound dial was placed"},
		{EventType: types.EventCallConnect, GoldValue: 25, XPValue: 15, DisplayName: "Call Connected", Description: "A prospect picked up the phone"},
		{EventType: types.EventEmailSent, GoldValue: 5, XPValue: 3, DisplayName: "Email Sent", Description: "An outbound email was sent"},
		{EventType: types.EventMeetingBooked, GoldValue: 100, XPValue: 40, DisplayName: "Meeting Booked", Description: "A meeting was scheduled with a prospect"},
		{EventType: types.EventMeetingAttended, GoldValue: 150, XPValue: 75, DisplayName: "Meeting Attended", Description: "A booked meeting actually happened"},
	}
}

// SeedDefaultRules inserts missing default rules. Existing rows win, so
// administrative changes survive restarts.
func (s *GormStore) SeedDefaultRules(ctx context.Context) error {
	for _, rule := range defaultRules() {
		res := s.db.WithContext(ctx).
			Where(model.Rule{EventType: rule.EventType}).
			FirstOrCreate(&rule)
		if res.Error != nil {
			return fmt.Errorf("seed rule %s: %w", rule.EventType, res.Error)
		}
	}
	return nil
}

// UpdateRule saves administrative changes to a reward rule.
func (s *GormStore) UpdateRule(ctx context.Context, r model.Rule) error {
	defer observe(time.Now())

	if err := s.db.WithContext(ctx).Save(&r).Error; err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return nil
}

// InsertEvent appends the event and its "created" audit row in one
// transaction. The insert is the single atomic write of the ingest path.
func (s *GormStore) InsertEvent(ctx context.Context, e *model.Event) error {
	defer observe(time.Now())

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	details, err := json.Marshal(map[string]string{
		"source":     string(e.Source),
		"event_type": string(e.EventType),
	})
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		logRow := model.EventLog{
			EventID:   e.ID,
			Action:    "created",
			Details:   string(details),
			CreatedAt: e.CreatedAt,
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return fmt.Errorf("insert event log: %w", err)
		}
		return nil
	})
}

// FindRecentDuplicate returns the newest event with the same key inside
// the window. This is the read half of the documented read-then-insert
// dedup race; acceptable at this volume.
func (s *GormStore) FindRecentDuplicate(ctx context.Context, source types.Source, eventType types.EventType, since time.Time) (model.Event, error) {
	defer observe(time.Now())

	var e model.Event
	err := s.db.WithContext(ctx).
		Where("source = ? AND event_type = ? AND created_at >= ?", source, eventType, since).
		Order("created_at DESC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("find duplicate: %w", err)
	}
	return e, nil
}

// RuleFor returns the reward rule for eventType.
func (s *GormStore) RuleFor(ctx context.Context, eventType types.EventType) (model.Rule, error) {
	defer observe(time.Now())

	var r model.Rule
	err := s.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Rule{}, ErrNoRule
	}
	if err != nil {
		return model.Rule{}, fmt.Errorf("rule lookup: %w", err)
	}
	return r, nil
}

// totalsRow mirrors the aggregate select below.
type totalsRow struct {
	TotalGold      int
	TotalXP        int `gorm:"column:total_xp"`
	TotalEvents    int
	CallsMade      int
	CallsConnected int
	MeetingsBooked int
}

// AggregateTotals computes every lifetime aggregate in one scan, the way
// the reporting layer does. No caching; a full scan is fine at this volume.
func (s *GormStore) AggregateTotals(ctx context.Context) (Totals, error) {
	defer observe(time.Now())

	var row totalsRow
	err := s.db.WithContext(ctx).
		Model(&model.Event{}).
		Select(
			"COALESCE(SUM(gold_value), 0) AS total_gold, " +
				"COALESCE(SUM(xp_value), 0) AS total_xp, " +
				"COUNT(*) AS total_events, " +
				"COALESCE(SUM(CASE WHEN event_type = 'call_dial' THEN 1 ELSE 0 END), 0) AS calls_made, " +
				"COALESCE(SUM(CASE WHEN event_type = 'call_connect' THEN 1 ELSE 0 END), 0) AS calls_connected, " +
				"COALESCE(SUM(CASE WHEN event_type = 'meeting_booked' THEN 1 ELSE 0 END), 0) AS meetings_booked").
		Scan(&row).Error
	if err != nil {
		return Totals{}, fmt.Errorf("aggregate totals: %w", err)
	}
	return Totals{
		TotalGold:      row.TotalGold,
		TotalXP:        row.TotalXP,
		TotalEvents:    row.TotalEvents,
		CallsMade:      row.CallsMade,
		CallsConnected: row.CallsConnected,
		MeetingsBooked: row.MeetingsBooked,
	}, nil
}

// CountEventsSince counts events created at or after since.
func (s *GormStore) CountEventsSince(ctx context.Context, since time.Time) (int64, error) {
	defer observe(time.Now())

	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count events since: %w", err)
	}
	return n, nil
}

// CountEventTypeSince counts events of one type created at or after since.
func (s *GormStore) CountEventTypeSince(ctx context.Context, eventType types.EventType, since time.Time) (int64, error) {
	defer observe(time.Now())

	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_type = ? AND created_at >= ?", eventType, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count %s since: %w", eventType, err)
	}
	return n, nil
}

// EventsSince returns events created at or after since, oldest first.
// Day bucketing for the daily report happens in the service so the
// configured time zone applies regardless of database dialect.
func (s *GormStore) EventsSince(ctx context.Context, since time.Time) ([]model.Event, error) {
	defer observe(time.Now())

	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("events since: %w", err)
	}
	return events, nil
}

// CountEventsBefore counts events older than cutoff.
func (s *GormStore) CountEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observe(time.Now())

	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("created_at < ?", cutoff).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count events before: %w", err)
	}
	return n, nil
}

// DeleteEventsBefore removes events older than cutoff.
func (s *GormStore) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observe(time.Now())

	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.Event{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete events before: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountEvents returns the total number of stored events.
func (s *GormStore) CountEvents(ctx context.Context) (int64, error) {
	defer observe(time.Now())

	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Event{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Ping verifies the underlying database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// observe records store query latency in milliseconds.
func observe(start time.Time) {
	metrics.RecordStoreQueryDuration(float64(time.Since(start).Microseconds()) / 1000.0)
}
