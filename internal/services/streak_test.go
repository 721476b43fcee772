package services

import (
	"testing"
	"time"

	"github.com/yungbote/habitflow-backend/internal/types"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d.UTC()
}

func streakState(current, longest int, lastCompleted string) types.HabitStreak {
	s := types.HabitStreak{CurrentStreak: current, LongestStreak: longest}
	if lastCompleted != "" {
		d := day(lastCompleted)
		s.LastCompleted = &d
	}
	return s
}

func TestAdvanceStreak(t *testing.T) {
	cases := []struct {
		name        string
		before      types.HabitStreak
		completedAt time.Time
		wantCurrent int
		wantLongest int
		wantLast    string
	}{
		{
			name:        "first completion ever",
			before:      streakState(0, 0, ""),
			completedAt: day("2026-03-01"),
			wantCurrent: 1,
			wantLongest: 1,
			wantLast:    "2026-03-01",
		},
		{
			name:        "consecutive day increments",
			before:      streakState(4, 9, "2026-03-01"),
			completedAt: day("2026-03-02"),
			wantCurrent: 5,
			wantLongest: 9,
			wantLast:    "2026-03-02",
		},
		{
			name:        "same day is idempotent",
			before:      streakState(4, 9, "2026-03-01"),
			completedAt: day("2026-03-01").Add(16 * time.Hour),
			wantCurrent: 4,
			wantLongest: 9,
			wantLast:    "2026-03-01",
		},
		{
			name:        "two day gap resets",
			before:      streakState(12, 12, "2026-03-01"),
			completedAt: day("2026-03-03"),
			wantCurrent: 1,
			wantLongest: 12,
			wantLast:    "2026-03-03",
		},
		{
			name:        "long gap resets",
			before:      streakState(30, 30, "2026-01-01"),
			completedAt: day("2026-03-01"),
			wantCurrent: 1,
			wantLongest: 30,
			wantLast:    "2026-03-01",
		},
		{
			name:        "clock skew never regresses",
			before:      streakState(6, 6, "2026-03-05"),
			completedAt: day("2026-03-04"),
			wantCurrent: 6,
			wantLongest: 6,
			wantLast:    "2026-03-05",
		},
		{
			name:        "longest follows current past previous best",
			before:      streakState(9, 9, "2026-03-01"),
			completedAt: day("2026-03-02"),
			wantCurrent: 10,
			wantLongest: 10,
			wantLast:    "2026-03-02",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			after := AdvanceStreak(tc.before, tc.completedAt)
			if after.CurrentStreak != tc.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", after.CurrentStreak, tc.wantCurrent)
			}
			if after.LongestStreak != tc.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", after.LongestStreak, tc.wantLongest)
			}
			if after.LastCompleted == nil {
				t.Fatal("LastCompleted is nil after completion")
			}
			if got := after.LastCompleted.Format("2006-01-02"); got != tc.wantLast {
				t.Errorf("LastCompleted = %s, want %s", got, tc.wantLast)
			}
			if after.LongestStreak < after.CurrentStreak {
				t.Errorf("LongestStreak %d dropped below CurrentStreak %d", after.LongestStreak, after.CurrentStreak)
			}
		})
	}
}

func TestAdvanceStreakTimezoneBoundary(t *testing.T) {
	// 23:30 and next-day 00:30 UTC are adjacent calendar days even
	// though only an hour apart.
	first := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	second := time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)

	state := AdvanceStreak(types.HabitStreak{}, first)
	if state.CurrentStreak != 1 {
		t.Fatalf("after first completion CurrentStreak = %d, want 1", state.CurrentStreak)
	}
	state = AdvanceStreak(state, second)
	if state.CurrentStreak != 2 {
		t.Errorf("adjacent-day completion CurrentStreak = %d, want 2", state.CurrentStreak)
	}
}

func TestStreakAdvanced(t *testing.T) {
	base := streakState(3, 3, "2026-03-01")

	sameDay := AdvanceStreak(base, day("2026-03-01").Add(8*time.Hour))
	if StreakAdvanced(base, sameDay) {
		t.Error("same-day repeat reported as an advance")
	}

	nextDay := AdvanceStreak(base, day("2026-03-02"))
	if !StreakAdvanced(base, nextDay) {
		t.Error("next-day completion not reported as an advance")
	}

	fresh := AdvanceStreak(types.HabitStreak{}, day("2026-03-01"))
	if !StreakAdvanced(types.HabitStreak{}, fresh) {
		t.Error("first completion not reported as an advance")
	}
}

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{1000, 11},
	}
	for _, tc := range cases {
		if got := LevelForPoints(tc.total, DefaultPointsPerLevel); got != tc.want {
			t.Errorf("LevelForPoints(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}
