package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type HabitLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, log *types.HabitLog) (*types.HabitLog, error)
	CountByHabit(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, since time.Time) (int64, error)
	ListByHabitSince(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, since time.Time) ([]*types.HabitLog, error)
}

type habitLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitLogRepo(db *gorm.DB, baseLog *logger.Logger) HabitLogRepo {
	repoLog := baseLog.With("repo", "HabitLogRepo")
	return &habitLogRepo{db: db, log: repoLog}
}

func (lr *habitLogRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return lr.db
}

func (lr *habitLogRepo) Create(ctx context.Context, tx *gorm.DB, log *types.HabitLog) (*types.HabitLog, error) {
	if err := lr.conn(tx).WithContext(ctx).Create(log).Error; err != nil {
		return nil, err
	}
	return log, nil
}

func (lr *habitLogRepo) CountByHabit(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	query := lr.conn(tx).WithContext(ctx).
		Model(&types.HabitLog{}).
		Where("habit_id = ?", habitID)
	if !since.IsZero() {
		query = query.Where("completed_at >= ?", since)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (lr *habitLogRepo) ListByHabitSince(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, since time.Time) ([]*types.HabitLog, error) {
	var results []*types.HabitLog
	err := lr.conn(tx).WithContext(ctx).
		Where("habit_id = ? AND completed_at >= ?", habitID, since).
		Order("completed_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
