package services

import (
	"time"

	"github.com/yungbote/habitflow-backend/internal/types"
)

// DayUTC truncates t to its UTC calendar day. All streak math happens
// at day granularity in UTC.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// AdvanceStreak applies one completion to a streak state and returns
// the new state. Transitions:
//
//	no prior completion        -> current = 1
//	same day                   -> unchanged (idempotent per day)
//	next day                   -> current + 1
//	gap of two days or more    -> reset to 1
//	earlier day (clock skew)   -> treated as same day, no regression
//
// longest_streak never drops below current_streak, and last_completed
// never moves backwards.
func AdvanceStreak(streak types.HabitStreak, completedAt time.Time) types.HabitStreak {
	day := DayUTC(completedAt)

	if streak.LastCompleted == nil {
		streak.CurrentStreak = 1
	} else {
		switch d := daysBetween(DayUTC(*streak.LastCompleted), day); {
		case d == 1:
			streak.CurrentStreak++
		case d > 1:
			streak.CurrentStreak = 1
		default:
			// d <= 0: already counted for this day
		}
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	if streak.LastCompleted == nil || day.After(*streak.LastCompleted) {
		streak.LastCompleted = &day
	}
	return streak
}

// StreakAdvanced reports whether the completion moved the streak
// forward (as opposed to a same-day repeat).
func StreakAdvanced(before, after types.HabitStreak) bool {
	if before.LastCompleted == nil {
		return after.LastCompleted != nil
	}
	if after.LastCompleted == nil {
		return false
	}
	return after.LastCompleted.After(*before.LastCompleted)
}
