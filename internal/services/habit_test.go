package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/types"
)

func setupHabitService(t *testing.T) (*completionFixture, HabitService) {
	t.Helper()
	f := setupCompletionFixture(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	habitRepo := repos.NewHabitRepo(f.db, log)
	svc := NewHabitService(f.db, log, habitRepo, f.streakRepo, f.logRepo)
	return f, svc
}

func TestHabitCreateDefaults(t *testing.T) {
	f, svc := setupHabitService(t)

	habit, err := svc.Create(context.Background(), f.user.ID, CreateHabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if habit.Frequency != "daily" || habit.TargetCount != 1 || !habit.IsActive {
		t.Errorf("defaults not applied: %+v", habit)
	}

	// the streak ledger row is created with the habit
	streak, err := f.streakRepo.GetByHabitID(context.Background(), nil, habit.ID)
	if err != nil {
		t.Fatalf("streak row missing after Create: %v", err)
	}
	if streak.CurrentStreak != 0 || streak.LastCompleted != nil {
		t.Errorf("new streak row not zeroed: %+v", streak)
	}
}

func TestHabitCreateRequiresTitle(t *testing.T) {
	f, svc := setupHabitService(t)

	_, err := svc.Create(context.Background(), f.user.ID, CreateHabitInput{})
	if err == nil {
		t.Fatal("Create accepted an empty title")
	}
	if ae := apierr.From(err); ae.Code != apierr.CodeInvalidRequest {
		t.Errorf("error code = %s, want %s", ae.Code, apierr.CodeInvalidRequest)
	}
}

func TestHabitUpdatePartial(t *testing.T) {
	f, svc := setupHabitService(t)

	newTitle := "Evening run"
	inactive := false
	habit, err := svc.Update(context.Background(), f.habit.ID, f.user.ID, UpdateHabitInput{Title: &newTitle, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if habit.Title != newTitle || habit.IsActive {
		t.Errorf("update not applied: %+v", habit)
	}
	if habit.Frequency != f.habit.Frequency {
		t.Errorf("untouched field changed: %s -> %s", f.habit.Frequency, habit.Frequency)
	}

	if _, err := svc.Update(context.Background(), f.habit.ID, f.user.ID, UpdateHabitInput{}); err == nil {
		t.Error("empty update accepted")
	}
}

func TestHabitOwnershipScoping(t *testing.T) {
	f, svc := setupHabitService(t)

	other := &types.User{ID: uuid.New(), Username: "intruder", Email: "intruder@example.com", Password: "x"}
	if _, err := f.userRepo.Create(context.Background(), nil, other); err != nil {
		t.Fatalf("failed to create second user: %v", err)
	}

	if _, err := svc.Get(context.Background(), f.habit.ID, other.ID); err == nil {
		t.Error("Get returned another user's habit")
	}
	if err := svc.Delete(context.Background(), f.habit.ID, other.ID); err == nil {
		t.Error("Delete removed another user's habit")
	}
}

func TestHabitStatsCalendar(t *testing.T) {
	f, svc := setupHabitService(t)

	// completions today and two days ago
	now := time.Now().UTC()
	for _, offset := range []int{0, 2} {
		entry := &types.HabitLog{ID: uuid.New(), HabitID: f.habit.ID, CompletedAt: now.AddDate(0, 0, -offset), PointsEarned: 10}
		if _, err := f.logRepo.Create(context.Background(), nil, entry); err != nil {
			t.Fatalf("failed to seed log: %v", err)
		}
	}

	stats, err := svc.Stats(context.Background(), f.habit.ID, f.user.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCompletions != 2 {
		t.Errorf("TotalCompletions = %d, want 2", stats.TotalCompletions)
	}
	if len(stats.Calendar) != statsCalendarDays {
		t.Fatalf("calendar length = %d, want %d", len(stats.Calendar), statsCalendarDays)
	}

	last := stats.Calendar[len(stats.Calendar)-1]
	if !last.Completed || last.Count != 1 {
		t.Errorf("today's calendar entry = %+v, want completed once", last)
	}
	yesterday := stats.Calendar[len(stats.Calendar)-2]
	if yesterday.Completed {
		t.Errorf("yesterday marked completed with no log: %+v", yesterday)
	}
}
