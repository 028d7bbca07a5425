package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	repository "github.com/okian/rift/internal/adapters/repository"
	"github.com/okian/rift/internal/domain/model"
	"github.com/okian/rift/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// newTestStore opens a sqlite-backed store in a per-test directory.
func newTestStore(t *testing.T) *repository.GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "rift-test.db")
	store, err := repository.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	return store
}

func TestRuleSeedingAndLookup(t *testing.T) {
	Convey("Given a freshly migrated store", t, func() {
		ctx := context.Background()
		store := newTestStore(t)

		Convey("When seeding the default rules", func() {
			So(store.SeedDefaultRules(ctx), ShouldBeNil)

			Convey("Then every event type should have a rule", func() {
				for _, et := range types.EventTypes() {
					rule, err := store.RuleFor(ctx, et)
					So(err, ShouldBeNil)
					So(rule.EventType, ShouldEqual, et)
					So(rule.GoldValue, ShouldBeGreaterThanOrEqualTo, 0)
					So(rule.XPValue, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})

			Convey("Then call_dial should grant 10 gold and 5 XP", func() {
				rule, err := store.RuleFor(ctx, types.EventCallDial)
				So(err, ShouldBeNil)
				So(rule.GoldValue, ShouldEqual, 10)
				So(rule.XPValue, ShouldEqual, 5)
			})

			Convey("And seeding again should not clobber admin changes", func() {
				rule, err := store.RuleFor(ctx, types.EventCallDial)
				So(err, ShouldBeNil)
				rule.GoldValue = 99
				So(store.UpdateRule(ctx, rule), ShouldBeNil)

				So(store.SeedDefaultRules(ctx), ShouldBeNil)

				again, err := store.RuleFor(ctx, types.EventCallDial)
				So(err, ShouldBeNil)
				So(again.GoldValue, ShouldEqual, 99)
			})
		})

		Convey("When looking up a rule that was never seeded", func() {
			_, err := store.RuleFor(ctx, types.EventCallDial)

			Convey("Then it should report the missing-rule kind", func() {
				So(err, ShouldEqual, repository.ErrNoRule)
			})
		})
	})
}

func TestInsertAndDuplicateLookup(t *testing.T) {
	Convey("Given a store with one fresh event", t, func() {
		ctx := context.Background()
		store := newTestStore(t)

		e := &model.Event{
			Source:    types.SourceManual,
			EventType: types.EventCallDial,
			GoldValue: 10,
			XPValue:   5,
			Metadata:  `{"prospect_name":"Jane Doe"}`,
		}
		So(store.InsertEvent(ctx, e), ShouldBeNil)

		Convey("Then the insert should have assigned identity and timestamp", func() {
			So(e.ID, ShouldNotBeEmpty)
			So(e.CreatedAt.IsZero(), ShouldBeFalse)
		})

		Convey("When searching for a duplicate inside the window", func() {
			since := time.Now().UTC().Add(-5 * time.Minute)
			dup, err := store.FindRecentDuplicate(ctx, types.SourceManual, types.EventCallDial, since)

			Convey("Then the existing event should be returned", func() {
				So(err, ShouldBeNil)
				So(dup.ID, ShouldEqual, e.ID)
				So(dup.GoldValue, ShouldEqual, 10)
			})
		})

		Convey("When searching with a window that has already elapsed", func() {
			since := time.Now().UTC().Add(time.Minute)
			_, err := store.FindRecentDuplicate(ctx, types.SourceManual, types.EventCallDial, since)

			Convey("Then no duplicate should be found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When searching with a different source or type", func() {
			since := time.Now().UTC().Add(-5 * time.Minute)

			_, err := store.FindRecentDuplicate(ctx, types.SourceNooks, types.EventCallDial, since)
			So(err, ShouldEqual, repository.ErrNotFound)

			_, err = store.FindRecentDuplicate(ctx, types.SourceManual, types.EventEmailSent, since)
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestAggregates(t *testing.T) {
	Convey("Given a store with a mixed batch of events", t, func() {
		ctx := context.Background()
		store := newTestStore(t)
		now := time.Now().UTC()

		insert := func(et types.EventType, gold, xp int, at time.Time) {
			e := &model.Event{
				Source:    types.SourceOutreach,
				EventType: et,
				GoldValue: gold,
				XPValue:   xp,
				CreatedAt: at,
			}
			So(store.InsertEvent(ctx, e), ShouldBeNil)
		}

		insert(types.EventCallDial, 10, 5, now.Add(-48*time.Hour))
		insert(types.EventCallDial, 10, 5, now.Add(-time.Hour))
		insert(types.EventCallConnect, 25, 15, now.Add(-time.Hour))
		insert(types.EventMeetingBooked, 100, 40, now.Add(-30*time.Minute))
		insert(types.EventEmailSent, 5, 3, now.Add(-10*time.Minute))

		Convey("When computing lifetime totals", func() {
			totals, err := store.AggregateTotals(ctx)

			Convey("Then sums and per-type counts should match", func() {
				So(err, ShouldBeNil)
				So(totals.TotalEvents, ShouldEqual, 5)
				So(totals.TotalGold, ShouldEqual, 150)
				So(totals.TotalXP, ShouldEqual, 68)
				So(totals.CallsMade, ShouldEqual, 2)
				So(totals.CallsConnected, ShouldEqual, 1)
				So(totals.MeetingsBooked, ShouldEqual, 1)
			})
		})

		Convey("When counting events in a trailing window", func() {
			n, err := store.CountEventsSince(ctx, now.Add(-2*time.Hour))

			Convey("Then only recent events should count", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 4)
			})
		})

		Convey("When counting one event type in a window", func() {
			n, err := store.CountEventTypeSince(ctx, types.EventMeetingBooked, now.Add(-time.Hour))

			Convey("Then only matching events should count", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When listing events since a cutoff", func() {
			events, err := store.EventsSince(ctx, now.Add(-2*time.Hour))

			Convey("Then they should come back oldest first", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 4)
				So(events[0].EventType, ShouldEqual, types.EventCallDial)
				So(events[len(events)-1].EventType, ShouldEqual, types.EventEmailSent)
			})
		})

		Convey("When counting events older than a cutoff", func() {
			n, err := store.CountEventsBefore(ctx, now.Add(-24*time.Hour))

			Convey("Then the old event is counted and nothing is removed", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				total, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 5)
			})
		})

		Convey("When deleting events older than a cutoff", func() {
			deleted, err := store.DeleteEventsBefore(ctx, now.Add(-24*time.Hour))

			Convey("Then only the old event should go away", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 1)

				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 4)
			})
		})
	})
}

func TestEmptyStoreAggregates(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := newTestStore(t)

		Convey("When computing totals", func() {
			totals, err := store.AggregateTotals(ctx)

			Convey("Then everything should be zero", func() {
				So(err, ShouldBeNil)
				So(totals.TotalEvents, ShouldEqual, 0)
				So(totals.TotalGold, ShouldEqual, 0)
				So(totals.TotalXP, ShouldEqual, 0)
			})
		})

		Convey("When pinging", func() {
			So(store.Ping(ctx), ShouldBeNil)
		})
	})
}
