package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	repository "github.com/okian/rift/internal/adapters/repository"
	"github.com/okian/rift/internal/app"
	"github.com/okian/rift/internal/domain/model"
	"github.com/okian/rift/internal/domain/progression"
	"github.com/okian/rift/internal/domain/types"
	"github.com/okian/rift/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// testClock is a controllable clock for dedup-window tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, opts ...app.Option) (*app.Service, *repository.GormStore) {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	store, err := repository.New(context.Background(), filepath.Join(t.TempDir(), "rift-test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	base := []app.Option{
		app.WithStore(store),
		app.WithWebhookSecret(testSecret),
	}
	svc := app.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	return svc, store
}

func TestIngest(t *testing.T) {
	Convey("Given a started service with an empty store", t, func() {
		ctx := context.Background()
		clock := &testClock{now: time.Now().UTC()}
		svc, store := newTestService(t, app.WithClock(clock.Now))

		payload := app.IngestPayload{
			Source:    "manual",
			EventType: "call_dial",
			Metadata:  map[string]interface{}{"prospect_name": "Jane Doe"},
		}

		Convey("When ingesting a fresh event with the correct secret", func() {
			res, err := svc.Ingest(ctx, testSecret, payload)

			Convey("Then the call_dial reward is granted and the event persisted", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(res.GoldEarned, ShouldEqual, 10)
				So(res.XPEarned, ShouldEqual, 5)
				So(res.EventID, ShouldNotBeEmpty)

				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("And repeating the identical call inside the window", func() {
				dup, err := svc.Ingest(ctx, testSecret, payload)

				Convey("Then it is suppressed as a duplicate with zero reward", func() {
					So(err, ShouldBeNil)
					So(dup.Duplicate, ShouldBeTrue)
					So(dup.GoldEarned, ShouldEqual, 0)
					So(dup.XPEarned, ShouldEqual, 0)
					So(dup.EventID, ShouldEqual, res.EventID)

					n, err := store.CountEvents(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 1)
				})
			})

			Convey("And repeating the call after the window has elapsed", func() {
				clock.Advance(6 * time.Minute)

				fresh, err := svc.Ingest(ctx, testSecret, payload)

				Convey("Then it is treated as a new event", func() {
					So(err, ShouldBeNil)
					So(fresh.Duplicate, ShouldBeFalse)
					So(fresh.GoldEarned, ShouldEqual, 10)
					So(fresh.EventID, ShouldNotEqual, res.EventID)

					n, err := store.CountEvents(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 2)
				})
			})

			Convey("And a different source inside the window is not a duplicate", func() {
				other := payload
				other.Source = "nooks"

				res2, err := svc.Ingest(ctx, testSecret, other)

				So(err, ShouldBeNil)
				So(res2.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When ingesting with an incorrect secret", func() {
			_, err := svc.Ingest(ctx, "wrong-secret", payload)

			Convey("Then it fails unauthorized and the store is unchanged", func() {
				So(errors.Is(err, app.ErrUnauthorized), ShouldBeTrue)

				n, cErr := store.CountEvents(ctx)
				So(cErr, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When ingesting an unknown event type", func() {
			bad := payload
			bad.EventType = "unknown_type"

			_, err := svc.Ingest(ctx, testSecret, bad)

			Convey("Then it fails validation naming the field", func() {
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "event_type")

				n, cErr := store.CountEvents(ctx)
				So(cErr, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When ingesting an unknown source", func() {
			bad := payload
			bad.Source = "salesforce"

			_, err := svc.Ingest(ctx, testSecret, bad)

			Convey("Then it fails validation naming the field", func() {
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "source")
			})
		})

		Convey("When the metadata exceeds the configured bound", func() {
			big := payload
			big.Metadata = map[string]interface{}{"notes": string(make([]byte, 6000))}

			_, err := svc.Ingest(ctx, testSecret, big)

			Convey("Then it fails validation naming metadata", func() {
				So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "metadata")
			})
		})
	})
}

func TestIngestErrorPaths(t *testing.T) {
	Convey("Given a service backed by a failing store", t, func() {
		ctx := context.Background()
		if err := logger.Init(); err != nil {
			t.Fatalf("init logger: %v", err)
		}

		Convey("When the rules table has no mapping for the event type", func() {
			store := &stubStore{ruleErr: repository.ErrNoRule}
			svc := app.New(app.WithStore(store), app.WithWebhookSecret(testSecret))
			So(svc.Start(ctx), ShouldBeNil)

			_, err := svc.Ingest(ctx, testSecret, app.IngestPayload{Source: "manual", EventType: "call_dial"})

			Convey("Then the configuration-error kind surfaces", func() {
				So(errors.Is(err, app.ErrNoRule), ShouldBeTrue)
			})
		})

		Convey("When the insert fails", func() {
			store := &stubStore{insertErr: errors.New("disk full")}
			svc := app.New(app.WithStore(store), app.WithWebhookSecret(testSecret))
			So(svc.Start(ctx), ShouldBeNil)

			_, err := svc.Ingest(ctx, testSecret, app.IngestPayload{Source: "manual", EventType: "call_dial"})

			Convey("Then the internal-error kind surfaces", func() {
				So(errors.Is(err, app.ErrInternal), ShouldBeTrue)
			})
		})

		Convey("When the service was never started", func() {
			svc := app.New(app.WithWebhookSecret(testSecret))

			_, err := svc.Ingest(ctx, testSecret, app.IngestPayload{Source: "manual", EventType: "call_dial"})

			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestCurrentStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()

		Convey("When the store is empty", func() {
			svc, _ := newTestService(t)

			stats, err := svc.CurrentStats(ctx)

			Convey("Then everything is zeroed at level 1, rank Iron", func() {
				So(err, ShouldBeNil)
				So(stats.TotalGold, ShouldEqual, 0)
				So(stats.TotalXP, ShouldEqual, 0)
				So(stats.CurrentLevel, ShouldEqual, 1)
				So(stats.XPInCurrentLevel, ShouldEqual, 0)
				So(stats.XPToNextLevel, ShouldEqual, 1000)
				So(stats.Rank, ShouldEqual, progression.RankIron)
				So(stats.TotalEvents, ShouldEqual, 0)
			})
		})

		Convey("When three meetings were booked this week", func() {
			// Dedupe disabled so rapid repeats insert.
			svc, _ := newTestService(t, app.WithDedupeWindow(0))
			for i := 0; i < 3; i++ {
				_, err := svc.Ingest(ctx, testSecret, app.IngestPayload{
					Source:    "outreach",
					EventType: "meeting_booked",
				})
				So(err, ShouldBeNil)
			}

			stats, err := svc.CurrentStats(ctx)

			Convey("Then the weekly rank is Gold", func() {
				So(err, ShouldBeNil)
				So(stats.Rank, ShouldEqual, progression.RankGold)
				So(stats.MeetingsBooked, ShouldEqual, 3)
				So(stats.EventsToday, ShouldEqual, 3)
			})
		})

		Convey("When lifetime XP reaches exactly 1000", func() {
			svc, store := newTestService(t)
			e := &model.Event{
				Source:    types.SourceManual,
				EventType: types.EventCallConnect,
				GoldValue: 0,
				XPValue:   1000,
			}
			So(store.InsertEvent(ctx, e), ShouldBeNil)

			stats, err := svc.CurrentStats(ctx)

			Convey("Then the level rolls over cleanly", func() {
				So(err, ShouldBeNil)
				So(stats.TotalXP, ShouldEqual, 1000)
				So(stats.CurrentLevel, ShouldEqual, 2)
				So(stats.XPInCurrentLevel, ShouldEqual, 0)
				So(stats.XPToNextLevel, ShouldEqual, 1000)
			})
		})

		Convey("When meetings were booked last week, not this week", func() {
			svc, store := newTestService(t)
			lastWeek := progression.WeekStart(time.Now().UTC(), time.UTC).Add(-48 * time.Hour)
			e := &model.Event{
				Source:    types.SourceOutreach,
				EventType: types.EventMeetingBooked,
				GoldValue: 100,
				XPValue:   40,
				CreatedAt: lastWeek,
			}
			So(store.InsertEvent(ctx, e), ShouldBeNil)

			stats, err := svc.CurrentStats(ctx)

			Convey("Then the weekly rank reset to Iron but lifetime counts remain", func() {
				So(err, ShouldBeNil)
				So(stats.Rank, ShouldEqual, progression.RankIron)
				So(stats.MeetingsBooked, ShouldEqual, 1)
			})
		})
	})
}

func TestDailyStatsAndCleanup(t *testing.T) {
	Convey("Given a store spanning several days", t, func() {
		ctx := context.Background()
		svc, store := newTestService(t)
		now := time.Now().UTC()

		insertAt := func(et types.EventType, gold, xp int, at time.Time) {
			e := &model.Event{
				Source:    types.SourceZapier,
				EventType: et,
				GoldValue: gold,
				XPValue:   xp,
				CreatedAt: at,
			}
			So(store.InsertEvent(ctx, e), ShouldBeNil)
		}

		insertAt(types.EventCallDial, 10, 5, now.Add(-72*time.Hour))
		insertAt(types.EventCallDial, 10, 5, now.Add(-time.Hour))
		insertAt(types.EventMeetingBooked, 100, 40, now.Add(-time.Hour))

		Convey("When requesting a two-day daily breakdown", func() {
			days, err := svc.DailyStats(ctx, 2)

			Convey("Then only today's bucket appears, newest first", func() {
				So(err, ShouldBeNil)
				So(len(days), ShouldEqual, 1)
				So(days[0].TotalEvents, ShouldEqual, 2)
				So(days[0].TotalGold, ShouldEqual, 110)
				So(days[0].CallsMade, ShouldEqual, 1)
				So(days[0].MeetingsBooked, ShouldEqual, 1)
			})
		})

		Convey("When requesting a wide daily breakdown", func() {
			days, err := svc.DailyStats(ctx, 7)

			Convey("Then both active days appear", func() {
				So(err, ShouldBeNil)
				So(len(days), ShouldEqual, 2)
				So(days[0].Date, ShouldBeGreaterThan, days[1].Date)
			})
		})

		Convey("When requesting a non-positive range", func() {
			_, err := svc.DailyStats(ctx, 0)

			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("When counting events older than two days", func() {
			n, err := svc.CountOldEvents(ctx, 2)

			Convey("Then the old event is reported but nothing is deleted", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				total, cErr := store.CountEvents(ctx)
				So(cErr, ShouldBeNil)
				So(total, ShouldEqual, 3)
			})
		})

		Convey("When counting with a non-positive threshold", func() {
			_, err := svc.CountOldEvents(ctx, 0)

			So(errors.Is(err, app.ErrValidation), ShouldBeTrue)
		})

		Convey("When cleaning up events older than two days", func() {
			deleted, err := svc.CleanupOldEvents(ctx, 2)

			Convey("Then only the old event is removed", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 1)

				n, cErr := store.CountEvents(ctx)
				So(cErr, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})
	})
}

func TestServiceMonitoring(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := newTestService(t)

		Convey("When asking for monitoring stats", func() {
			stats := svc.GetStats()

			Convey("Then the snapshot includes liveness and configuration", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["xpPerLevel"], ShouldEqual, 1000)
				So(stats, ShouldContainKey, "totalEvents")
			})
		})

		Convey("When checking health", func() {
			So(svc.Health(context.Background()), ShouldBeNil)
		})

		Convey("When stopping", func() {
			svc.Stop()

			Convey("Then health reports not started", func() {
				err := svc.Health(context.Background())
				So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

// stubStore lets error paths be exercised without a database.
type stubStore struct {
	ruleErr   error
	insertErr error
}

func (s *stubStore) InsertEvent(ctx context.Context, e *model.Event) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	e.ID = "stub-id"
	return nil
}

func (s *stubStore) FindRecentDuplicate(ctx context.Context, source types.Source, eventType types.EventType, since time.Time) (model.Event, error) {
	return model.Event{}, repository.ErrNotFound
}

func (s *stubStore) RuleFor(ctx context.Context, eventType types.EventType) (model.Rule, error) {
	if s.ruleErr != nil {
		return model.Rule{}, s.ruleErr
	}
	return model.Rule{EventType: eventType, GoldValue: 10, XPValue: 5}, nil
}

func (s *stubStore) SeedDefaultRules(ctx context.Context) error { return nil }

func (s *stubStore) UpdateRule(ctx context.Context, r model.Rule) error { return nil }

func (s *stubStore) AggregateTotals(ctx context.Context) (repository.Totals, error) {
	return repository.Totals{}, nil
}

func (s *stubStore) CountEventsSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

func (s *stubStore) CountEventTypeSince(ctx context.Context, eventType types.EventType, since time.Time) (int64, error) {
	return 0, nil
}

func (s *stubStore) EventsSince(ctx context.Context, since time.Time) ([]model.Event, error) {
	return nil, nil
}

func (s *stubStore) CountEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubStore) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubStore) CountEvents(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubStore) Ping(ctx context.Context) error { return nil }
