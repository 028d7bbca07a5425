package seedevents

import (
	"context"
	"fmt"

	"github.com/okian/rift/pkg/logger"
)

// verifyStats cross-checks the service's derived snapshot against what the
// run observed. Pre-existing events make the snapshot larger, never smaller.
func verifyStats(ctx context.Context, snapshot StatsSnapshot, stats *Stats) error {
	logger.Get().Info(ctx, "verifying stats against submission results")

	if snapshot.TotalEvents < stats.EventsSuccessful {
		return fmt.Errorf("snapshot reports %d events, but %d were accepted this run",
			snapshot.TotalEvents, stats.EventsSuccessful)
	}

	if snapshot.TotalGold < int(stats.GoldAwarded) {
		return fmt.Errorf("snapshot reports %d gold, but %d was awarded this run",
			snapshot.TotalGold, stats.GoldAwarded)
	}

	if snapshot.TotalXP < int(stats.XPAwarded) {
		return fmt.Errorf("snapshot reports %d xp, but %d was awarded this run",
			snapshot.TotalXP, stats.XPAwarded)
	}

	if snapshot.CurrentLevel < 1 {
		return fmt.Errorf("snapshot reports level %d; levels start at 1", snapshot.CurrentLevel)
	}

	logger.Get().Info(ctx, "stats verified",
		logger.Int("totalEvents", snapshot.TotalEvents),
		logger.Int("totalGold", snapshot.TotalGold),
		logger.Int("totalXP", snapshot.TotalXP),
		logger.Int("currentLevel", snapshot.CurrentLevel),
		logger.String("rank", snapshot.Rank),
		logger.Int("callsMade", snapshot.CallsMade),
		logger.Int("callsConnected", snapshot.CallsConnected),
		logger.Int("meetingsBooked", snapshot.MeetingsBooked))

	return nil
}
