package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/gamification"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/types"
)

// recordingNotifier captures emitted events, in emission order, so
// tests can assert on the post-commit fan-out without a live hub.
type recordingNotifier struct {
	mu           sync.Mutex
	events       []string
	completed    int
	achievements []string
	milestones   []int
	levelUps     []int
}

func (rn *recordingNotifier) HabitCompleted(userID uuid.UUID, result *CompletionResult) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	rn.events = append(rn.events, "habit_completed")
	rn.completed++
}

func (rn *recordingNotifier) AchievementUnlocked(userID uuid.UUID, achievement *types.Achievement) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	rn.events = append(rn.events, "achievement_unlocked")
	rn.achievements = append(rn.achievements, achievement.Type)
}

func (rn *recordingNotifier) StreakMilestone(userID uuid.UUID, habitID uuid.UUID, currentStreak int) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	rn.events = append(rn.events, "streak_milestone")
	rn.milestones = append(rn.milestones, currentStreak)
}

func (rn *recordingNotifier) LevelUp(userID uuid.UUID, newLevel, totalPoints int) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	rn.events = append(rn.events, "level_up")
	rn.levelUps = append(rn.levelUps, newLevel)
}

func (rn *recordingNotifier) ReminderTriggered(userID uuid.UUID, habitID uuid.UUID, habitTitle, message string) {
}

func (rn *recordingNotifier) UserJoinedBoard(userID uuid.UUID, boardID string) {}

type completionFixture struct {
	db          *gorm.DB
	service     CompletionService
	notifier    *recordingNotifier
	userRepo    repos.UserRepo
	streakRepo  repos.HabitStreakRepo
	logRepo     repos.HabitLogRepo
	achieveRepo repos.AchievementRepo
	user        *types.User
	habit       *types.Habit
}

func setupCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "habitflow_test.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	// sqlite allows a single writer; serialize at the pool
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Habit{},
		&types.HabitStreak{},
		&types.HabitLog{},
		&types.Achievement{},
	); err != nil {
		t.Fatalf("auto migration failed: %v", err)
	}

	ctx := context.Background()
	userRepo := repos.NewUserRepo(gdb, log)
	habitRepo := repos.NewHabitRepo(gdb, log)
	streakRepo := repos.NewHabitStreakRepo(gdb, log)
	logRepo := repos.NewHabitLogRepo(gdb, log)
	achieveRepo := repos.NewAchievementRepo(gdb, log)

	user := &types.User{ID: uuid.New(), Username: "tester", Email: "tester@example.com", Password: "x"}
	if _, err := userRepo.Create(ctx, nil, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	habit := &types.Habit{ID: uuid.New(), UserID: user.ID, Title: "Morning run", Frequency: "daily", TargetCount: 1, IsActive: true}
	if _, err := habitRepo.Create(ctx, nil, habit); err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}
	if _, err := streakRepo.Create(ctx, nil, &types.HabitStreak{ID: uuid.New(), HabitID: habit.ID}); err != nil {
		t.Fatalf("failed to create streak: %v", err)
	}

	notifier := &recordingNotifier{}
	service := NewCompletionService(gdb, log, habitRepo, streakRepo, logRepo, achieveRepo, userRepo, notifier, gamification.StreakRules(), DefaultPointsPerCompletion, DefaultPointsPerLevel)

	return &completionFixture{
		db:          gdb,
		service:     service,
		notifier:    notifier,
		userRepo:    userRepo,
		streakRepo:  streakRepo,
		logRepo:     logRepo,
		achieveRepo: achieveRepo,
		user:        user,
		habit:       habit,
	}
}

func (f *completionFixture) seedStreak(t *testing.T, current, longest, daysAgo int) {
	t.Helper()
	last := DayUTC(time.Now().UTC().AddDate(0, 0, -daysAgo))
	streak := &types.HabitStreak{HabitID: f.habit.ID, CurrentStreak: current, LongestStreak: longest, LastCompleted: &last}
	if _, err := f.streakRepo.Update(context.Background(), nil, streak); err != nil {
		t.Fatalf("failed to seed streak: %v", err)
	}
}

func (f *completionFixture) userPoints(t *testing.T) int {
	t.Helper()
	user, err := f.userRepo.GetByID(context.Background(), nil, f.user.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	return user.TotalPoints
}

func TestCompleteFirstTime(t *testing.T) {
	f := setupCompletionFixture(t)

	result, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, "felt great")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Streak.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", result.Streak.CurrentStreak)
	}
	if result.Log == nil || result.Log.Note != "felt great" {
		t.Errorf("log entry = %+v, want note preserved", result.Log)
	}
	if len(result.Achievements) != 0 {
		t.Errorf("unlocked %d achievements on day one, want 0", len(result.Achievements))
	}
	if got := f.userPoints(t); got != DefaultPointsPerCompletion {
		t.Errorf("user points = %d, want %d", got, DefaultPointsPerCompletion)
	}
	if f.notifier.completed != 1 {
		t.Errorf("habit_completed events = %d, want 1", f.notifier.completed)
	}
}

func TestCompleteUnlocksStreakSeven(t *testing.T) {
	f := setupCompletionFixture(t)
	f.seedStreak(t, 6, 6, 1)

	result, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Streak.CurrentStreak != 7 {
		t.Fatalf("CurrentStreak = %d, want 7", result.Streak.CurrentStreak)
	}
	if len(result.Achievements) != 1 || result.Achievements[0].Type != "streak_7" {
		t.Fatalf("achievements = %+v, want exactly streak_7", result.Achievements)
	}

	// base points plus the streak_7 bonus
	want := DefaultPointsPerCompletion + 25
	if got := f.userPoints(t); got != want {
		t.Errorf("user points = %d, want %d", got, want)
	}

	rows, err := f.achieveRepo.ListByUser(context.Background(), nil, f.user.ID)
	if err != nil {
		t.Fatalf("failed to list achievements: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("achievement rows = %d, want 1", len(rows))
	}

	if len(f.notifier.achievements) != 1 || f.notifier.achievements[0] != "streak_7" {
		t.Errorf("achievement events = %v, want [streak_7]", f.notifier.achievements)
	}
	if len(f.notifier.milestones) != 1 || f.notifier.milestones[0] != 7 {
		t.Errorf("milestone events = %v, want [7]", f.notifier.milestones)
	}

	// completion announces first, then the unlock, then the milestone
	wantOrder := []string{"habit_completed", "achievement_unlocked", "streak_milestone"}
	if len(f.notifier.events) != len(wantOrder) {
		t.Fatalf("event sequence = %v, want %v", f.notifier.events, wantOrder)
	}
	for i, event := range wantOrder {
		if f.notifier.events[i] != event {
			t.Fatalf("event sequence = %v, want %v", f.notifier.events, wantOrder)
		}
	}
}

func TestSameDayCompletionIdempotentStreak(t *testing.T) {
	f := setupCompletionFixture(t)

	if _, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, "first"); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}
	result, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, "second")
	if err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}

	if result.Streak.CurrentStreak != 1 {
		t.Errorf("same-day repeat CurrentStreak = %d, want 1", result.Streak.CurrentStreak)
	}

	// the activity log still appends and points still accrue
	count, err := f.logRepo.CountByHabit(context.Background(), nil, f.habit.ID, time.Time{})
	if err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	if count != 2 {
		t.Errorf("log rows = %d, want 2", count)
	}
	if got := f.userPoints(t); got != 2*DefaultPointsPerCompletion {
		t.Errorf("user points = %d, want %d", got, 2*DefaultPointsPerCompletion)
	}
	if len(f.notifier.milestones) != 0 {
		t.Errorf("milestone events = %v, want none for a same-day repeat", f.notifier.milestones)
	}
}

func TestGapResetsStreakButKeepsLongest(t *testing.T) {
	f := setupCompletionFixture(t)
	f.seedStreak(t, 12, 12, 3)

	result, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if result.Streak.CurrentStreak != 1 {
		t.Errorf("CurrentStreak after gap = %d, want 1", result.Streak.CurrentStreak)
	}
	if result.Streak.LongestStreak != 12 {
		t.Errorf("LongestStreak after gap = %d, want 12", result.Streak.LongestStreak)
	}
}

func TestUnknownHabitIsNotFound(t *testing.T) {
	f := setupCompletionFixture(t)

	if _, err := f.service.Complete(context.Background(), uuid.New(), f.user.ID, ""); err == nil {
		t.Error("completing an unknown habit succeeded")
	}

	// someone else's habit is indistinguishable from a missing one
	other := &types.User{ID: uuid.New(), Username: "other", Email: "other@example.com", Password: "x"}
	if _, err := f.userRepo.Create(context.Background(), nil, other); err != nil {
		t.Fatalf("failed to create second user: %v", err)
	}
	if _, err := f.service.Complete(context.Background(), f.habit.ID, other.ID, ""); err == nil {
		t.Error("completing another user's habit succeeded")
	}
}

func TestConcurrentCompletionsUnlockOnce(t *testing.T) {
	f := setupCompletionFixture(t)
	f.seedStreak(t, 6, 6, 1)

	const workers = 8
	var eg errgroup.Group
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			_, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, "")
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("concurrent Complete failed: %v", err)
	}

	rows, err := f.achieveRepo.ListByUser(context.Background(), nil, f.user.ID)
	if err != nil {
		t.Fatalf("failed to list achievements: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("achievement rows = %d, want exactly 1 streak_7 unlock", len(rows))
	}

	// every completion logs and earns base points; the bonus lands once
	count, err := f.logRepo.CountByHabit(context.Background(), nil, f.habit.ID, time.Time{})
	if err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	if count != workers {
		t.Errorf("log rows = %d, want %d", count, workers)
	}
	want := workers*DefaultPointsPerCompletion + 25
	if got := f.userPoints(t); got != want {
		t.Errorf("user points = %d, want %d", got, want)
	}

	streak, err := f.streakRepo.GetByHabitID(context.Background(), nil, f.habit.ID)
	if err != nil {
		t.Fatalf("failed to load streak: %v", err)
	}
	if streak.CurrentStreak != 7 {
		t.Errorf("CurrentStreak = %d, want 7 (same-day repeats are no-ops)", streak.CurrentStreak)
	}
}

func TestLevelUpEmittedOnThresholdCross(t *testing.T) {
	f := setupCompletionFixture(t)

	// 95 points banked, one completion crosses 100
	if err := f.userRepo.AddPoints(context.Background(), nil, f.user.ID, 95); err != nil {
		t.Fatalf("failed to seed points: %v", err)
	}
	if _, err := f.service.Complete(context.Background(), f.habit.ID, f.user.ID, ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if len(f.notifier.levelUps) != 1 || f.notifier.levelUps[0] != 2 {
		t.Errorf("level_up events = %v, want [2]", f.notifier.levelUps)
	}
}
