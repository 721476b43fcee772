package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type HabitStreakRepo interface {
	Create(ctx context.Context, tx *gorm.DB, streak *types.HabitStreak) (*types.HabitStreak, error)
	GetByHabitID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.HabitStreak, error)
	Update(ctx context.Context, tx *gorm.DB, streak *types.HabitStreak) (*types.HabitStreak, error)
}

type habitStreakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitStreakRepo(db *gorm.DB, baseLog *logger.Logger) HabitStreakRepo {
	repoLog := baseLog.With("repo", "HabitStreakRepo")
	return &habitStreakRepo{db: db, log: repoLog}
}

func (sr *habitStreakRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return sr.db
}

func (sr *habitStreakRepo) Create(ctx context.Context, tx *gorm.DB, streak *types.HabitStreak) (*types.HabitStreak, error) {
	if err := sr.conn(tx).WithContext(ctx).Create(streak).Error; err != nil {
		return nil, err
	}
	return streak, nil
}

func (sr *habitStreakRepo) GetByHabitID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.HabitStreak, error) {
	var streak types.HabitStreak
	err := sr.conn(tx).WithContext(ctx).
		Where("habit_id = ?", habitID).
		First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (sr *habitStreakRepo) Update(ctx context.Context, tx *gorm.DB, streak *types.HabitStreak) (*types.HabitStreak, error) {
	err := sr.conn(tx).WithContext(ctx).
		Model(&types.HabitStreak{}).
		Where("habit_id = ?", streak.HabitID).
		Updates(map[string]interface{}{
			"current_streak": streak.CurrentStreak,
			"longest_streak": streak.LongestStreak,
			"last_completed": streak.LastCompleted,
		}).Error
	if err != nil {
		return nil, err
	}
	return streak, nil
}
