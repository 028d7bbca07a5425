// Package progression computes derived gamification state from raw totals.
//
// Two independent functions live here on purpose: level is a lifetime
// progression over cumulative XP, while rank is a weekly competitive tier
// over meeting bookings that resets every Monday. They share no state.
package progression

import "time"

// DefaultXPPerLevel is the XP required to advance one level.
const DefaultXPPerLevel = 1000

// Rank tier names, ordered by weekly meeting count.
const (
	RankIron        = "Iron"
	RankBronze      = "Bronze"
	RankSilver      = "Silver"
	RankGold        = "Gold"
	RankPlatinum    = "Platinum"
	RankEmerald     = "Emerald"
	RankDiamond     = "Diamond"
	RankMaster      = "Master"
	RankGrandmaster = "Grandmaster"
	RankChallenger  = "Challenger"
)

// challengerThreshold is the weekly meeting count at which the top tier begins.
const challengerThreshold = 9

// rankTiers maps an exact weekly meeting count to its tier.
var rankTiers = []string{
	RankIron,
	RankBronze,
	RankSilver,
	RankGold,
	RankPlatinum,
	RankEmerald,
	RankDiamond,
	RankMaster,
	RankGrandmaster,
}

// Level describes where a cumulative XP total sits in the level curve.
type Level struct {
	Current   int
	XPInLevel int
	XPToNext  int
}

// LevelFor computes the level reached with totalXP. xpPerLevel values
// below 1 fall back to DefaultXPPerLevel. Negative totals clamp to zero.
func LevelFor(totalXP, xpPerLevel int) Level {
	if xpPerLevel < 1 {
		xpPerLevel = DefaultXPPerLevel
	}
	if totalXP < 0 {
		totalXP = 0
	}
	inLevel := totalXP % xpPerLevel
	return Level{
		Current:   totalXP/xpPerLevel + 1,
		XPInLevel: inLevel,
		XPToNext:  xpPerLevel - inLevel,
	}
}

// RankFor maps a weekly meeting count to its tier. The mapping is exact
// per count up to Grandmaster; nine or more meetings is Challenger.
func RankFor(weeklyMeetings int) string {
	if weeklyMeetings >= challengerThreshold {
		return RankChallenger
	}
	if weeklyMeetings < 0 {
		return RankIron
	}
	return rankTiers[weeklyMeetings]
}

// WeekStart returns the most recent Monday 00:00 in loc at or before now.
// A nil loc means UTC.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	// time.Weekday numbers Sunday as 0; shift so Monday is 0.
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	year, month, day := local.AddDate(0, 0, -daysSinceMonday).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DayStart returns midnight of now's calendar date in loc.
// A nil loc means UTC.
func DayStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := now.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
