package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type CreateHabitInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	TargetCount int    `json:"target_count"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type UpdateHabitInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	TargetCount *int    `json:"target_count"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"is_active"`
}

type HabitWithStreak struct {
	*types.Habit
	Streak *types.HabitStreak `json:"streak"`
}

type CalendarDay struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Count     int    `json:"count"`
}

type HabitStats struct {
	HabitID          uuid.UUID     `json:"habit_id"`
	HabitTitle       string        `json:"habit_title"`
	TotalCompletions int           `json:"total_completions"`
	CompletionRate   float64       `json:"completion_rate"`
	CurrentStreak    int           `json:"current_streak"`
	LongestStreak    int           `json:"longest_streak"`
	Calendar         []CalendarDay `json:"calendar"`
}

type HabitService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateHabitInput) (*types.Habit, error)
	Get(ctx context.Context, habitID, userID uuid.UUID) (*HabitWithStreak, error)
	List(ctx context.Context, userID uuid.UUID) ([]*HabitWithStreak, error)
	Update(ctx context.Context, habitID, userID uuid.UUID, input UpdateHabitInput) (*types.Habit, error)
	Delete(ctx context.Context, habitID, userID uuid.UUID) error
	GetStreak(ctx context.Context, habitID, userID uuid.UUID) (*types.HabitStreak, error)
	Stats(ctx context.Context, habitID, userID uuid.UUID) (*HabitStats, error)
}

type habitService struct {
	db           *gorm.DB
	log          *logger.Logger
	habitRepo    repos.HabitRepo
	streakRepo   repos.HabitStreakRepo
	habitLogRepo repos.HabitLogRepo
}

func NewHabitService(db *gorm.DB, log *logger.Logger, habitRepo repos.HabitRepo, streakRepo repos.HabitStreakRepo, habitLogRepo repos.HabitLogRepo) HabitService {
	serviceLog := log.With("service", "HabitService")
	return &habitService{
		db:           db,
		log:          serviceLog,
		habitRepo:    habitRepo,
		streakRepo:   streakRepo,
		habitLogRepo: habitLogRepo,
	}
}

// Create inserts the habit and its zeroed streak row in one
// transaction, so the completion engine can always assume a ledger row
// exists.
func (hs *habitService) Create(ctx context.Context, userID uuid.UUID, input CreateHabitInput) (*types.Habit, error) {
	if input.Title == "" {
		return nil, apierr.InvalidRequest(fmt.Errorf("title is required"))
	}
	if input.Frequency == "" {
		input.Frequency = "daily"
	}
	if input.TargetCount <= 0 {
		input.TargetCount = 1
	}
	if input.Color == "" {
		input.Color = "#6366f1"
	}
	if input.Icon == "" {
		input.Icon = "✓"
	}

	habit := &types.Habit{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Frequency:   input.Frequency,
		TargetCount: input.TargetCount,
		Color:       input.Color,
		Icon:        input.Icon,
		IsActive:    true,
	}
	err := hs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := hs.habitRepo.Create(ctx, tx, habit); err != nil {
			return fmt.Errorf("Failed to create habit: %w", err)
		}
		if _, err := hs.streakRepo.Create(ctx, tx, &types.HabitStreak{ID: uuid.New(), HabitID: habit.ID}); err != nil {
			return fmt.Errorf("Failed to create streak row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return habit, nil
}

func (hs *habitService) Get(ctx context.Context, habitID, userID uuid.UUID) (*HabitWithStreak, error) {
	habit, err := hs.ownedHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}
	streak, err := hs.streakOrZero(ctx, habitID)
	if err != nil {
		return nil, err
	}
	return &HabitWithStreak{Habit: habit, Streak: streak}, nil
}

func (hs *habitService) List(ctx context.Context, userID uuid.UUID) ([]*HabitWithStreak, error) {
	habits, err := hs.habitRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to list habits: %w", err))
	}
	results := make([]*HabitWithStreak, 0, len(habits))
	for _, habit := range habits {
		streak, err := hs.streakOrZero(ctx, habit.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, &HabitWithStreak{Habit: habit, Streak: streak})
	}
	return results, nil
}

func (hs *habitService) Update(ctx context.Context, habitID, userID uuid.UUID, input UpdateHabitInput) (*types.Habit, error) {
	habit, err := hs.ownedHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}
	changed := false
	if input.Title != nil {
		habit.Title = *input.Title
		changed = true
	}
	if input.Description != nil {
		habit.Description = *input.Description
		changed = true
	}
	if input.Frequency != nil {
		habit.Frequency = *input.Frequency
		changed = true
	}
	if input.TargetCount != nil {
		habit.TargetCount = *input.TargetCount
		changed = true
	}
	if input.Color != nil {
		habit.Color = *input.Color
		changed = true
	}
	if input.Icon != nil {
		habit.Icon = *input.Icon
		changed = true
	}
	if input.IsActive != nil {
		habit.IsActive = *input.IsActive
		changed = true
	}
	if !changed {
		return nil, apierr.InvalidRequest(fmt.Errorf("no fields to update"))
	}
	if _, err := hs.habitRepo.Update(ctx, nil, habit); err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to update habit: %w", err))
	}
	return habit, nil
}

func (hs *habitService) Delete(ctx context.Context, habitID, userID uuid.UUID) error {
	if _, err := hs.ownedHabit(ctx, habitID, userID); err != nil {
		return err
	}
	if err := hs.habitRepo.Delete(ctx, nil, habitID); err != nil {
		return apierr.Internal(fmt.Errorf("Failed to delete habit: %w", err))
	}
	return nil
}

func (hs *habitService) GetStreak(ctx context.Context, habitID, userID uuid.UUID) (*types.HabitStreak, error) {
	if _, err := hs.ownedHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}
	return hs.streakOrZero(ctx, habitID)
}

const statsCalendarDays = 90

func (hs *habitService) Stats(ctx context.Context, habitID, userID uuid.UUID) (*HabitStats, error) {
	habit, err := hs.ownedHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}
	streak, err := hs.streakOrZero(ctx, habitID)
	if err != nil {
		return nil, err
	}

	today := DayUTC(time.Now())
	since := today.AddDate(0, 0, -(statsCalendarDays - 1))

	total, err := hs.habitLogRepo.CountByHabit(ctx, nil, habitID, time.Time{})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to count completions: %w", err))
	}
	logs, err := hs.habitLogRepo.ListByHabitSince(ctx, nil, habitID, since)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to load completion calendar: %w", err))
	}

	countsByDay := make(map[string]int, len(logs))
	for _, entry := range logs {
		key := DayUTC(entry.CompletedAt).Format("2006-01-02")
		countsByDay[key]++
	}

	calendar := make([]CalendarDay, 0, statsCalendarDays)
	completedDays := 0
	for i := statsCalendarDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format("2006-01-02")
		count := countsByDay[key]
		if count > 0 {
			completedDays++
		}
		calendar = append(calendar, CalendarDay{Date: key, Completed: count > 0, Count: count})
	}

	rate := float64(completedDays) / float64(statsCalendarDays) * 100
	return &HabitStats{
		HabitID:          habitID,
		HabitTitle:       habit.Title,
		TotalCompletions: int(total),
		CompletionRate:   float64(int(rate*10+0.5)) / 10,
		CurrentStreak:    streak.CurrentStreak,
		LongestStreak:    streak.LongestStreak,
		Calendar:         calendar,
	}, nil
}

func (hs *habitService) ownedHabit(ctx context.Context, habitID, userID uuid.UUID) (*types.Habit, error) {
	habit, err := hs.habitRepo.GetOwnedByUser(ctx, nil, habitID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("habit not found"))
		}
		return nil, apierr.Internal(fmt.Errorf("Failed to load habit: %w", err))
	}
	return habit, nil
}

func (hs *habitService) streakOrZero(ctx context.Context, habitID uuid.UUID) (*types.HabitStreak, error) {
	streak, err := hs.streakRepo.GetByHabitID(ctx, nil, habitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.HabitStreak{HabitID: habitID}, nil
		}
		return nil, apierr.Internal(fmt.Errorf("Failed to load streak: %w", err))
	}
	return streak, nil
}
