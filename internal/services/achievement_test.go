package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/habitflow-backend/internal/gamification"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/types"
)

func TestAchievementReadModels(t *testing.T) {
	f := setupCompletionFixture(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	svc := NewAchievementService(f.db, log, f.achieveRepo, gamification.StreakRules())
	ctx := context.Background()

	// unlock streak_7 by completing off a seeded 6-day run
	f.seedStreak(t, 6, 6, 1)
	if _, err := f.service.Complete(ctx, f.habit.ID, f.user.ID, ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	unlocked, err := svc.ListUnlocked(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListUnlocked failed: %v", err)
	}
	if unlocked.Total != 1 || unlocked.TotalPoints != 25 {
		t.Errorf("unlocked = total %d points %d, want 1 / 25", unlocked.Total, unlocked.TotalPoints)
	}
	if silver := unlocked.ByRarity[gamification.RaritySilver]; len(silver) != 1 {
		t.Errorf("silver bucket = %d entries, want 1", len(silver))
	}

	available, err := svc.ListAvailable(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(available) != len(gamification.StreakRules())-1 {
		t.Fatalf("available = %d entries, want %d", len(available), len(gamification.StreakRules())-1)
	}
	for _, a := range available {
		if a.Type == "streak_7" {
			t.Error("unlocked achievement still listed as available")
		}
	}

	stats, err := svc.Stats(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalUnlocked != 1 || stats.TotalAvailable != len(gamification.StreakRules()) {
		t.Errorf("stats = %+v, want 1 unlocked of %d", stats, len(gamification.StreakRules()))
	}
	if stats.CompletionPercentage != 25 {
		t.Errorf("CompletionPercentage = %d, want 25", stats.CompletionPercentage)
	}
}

func TestLeaderboardRanksByPoints(t *testing.T) {
	f := setupCompletionFixture(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	svc := NewUserService(f.db, log, f.userRepo, DefaultPointsPerLevel)
	ctx := context.Background()

	rival := &types.User{ID: uuid.New(), Username: "rival", Email: "rival@example.com", Password: "x", TotalPoints: 500}
	if _, err := f.userRepo.Create(ctx, nil, rival); err != nil {
		t.Fatalf("failed to create rival: %v", err)
	}
	if err := f.userRepo.AddPoints(ctx, nil, f.user.ID, 120); err != nil {
		t.Fatalf("failed to seed points: %v", err)
	}

	board, err := svc.GetLeaderboard(ctx, f.user.ID, 10)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("leaderboard entries = %d, want 2", len(board.Entries))
	}
	if board.Entries[0].Username != "rival" {
		t.Errorf("top entry = %s, want rival", board.Entries[0].Username)
	}
	if board.MyRank != 2 {
		t.Errorf("MyRank = %d, want 2", board.MyRank)
	}
	if board.Entries[1].Level != 2 {
		t.Errorf("level for 120 points = %d, want 2", board.Entries[1].Level)
	}

	profile, err := svc.GetProfile(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.TotalPoints != 120 || profile.Level != 2 {
		t.Errorf("profile = %+v, want 120 points at level 2", profile)
	}
}
