package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type HabitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, habit *types.Habit) (*types.Habit, error)
	GetByID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.Habit, error)
	GetOwnedByUser(ctx context.Context, tx *gorm.DB, habitID, userID uuid.UUID) (*types.Habit, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Habit, error)
	Update(ctx context.Context, tx *gorm.DB, habit *types.Habit) (*types.Habit, error)
	Delete(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) error
}

type habitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitRepo(db *gorm.DB, baseLog *logger.Logger) HabitRepo {
	repoLog := baseLog.With("repo", "HabitRepo")
	return &habitRepo{db: db, log: repoLog}
}

func (hr *habitRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return hr.db
}

func (hr *habitRepo) Create(ctx context.Context, tx *gorm.DB, habit *types.Habit) (*types.Habit, error) {
	if err := hr.conn(tx).WithContext(ctx).Create(habit).Error; err != nil {
		return nil, err
	}
	return habit, nil
}

func (hr *habitRepo) GetByID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.Habit, error) {
	var habit types.Habit
	err := hr.conn(tx).WithContext(ctx).
		Where("id = ?", habitID).
		First(&habit).Error
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (hr *habitRepo) GetOwnedByUser(ctx context.Context, tx *gorm.DB, habitID, userID uuid.UUID) (*types.Habit, error) {
	var habit types.Habit
	err := hr.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", habitID, userID).
		First(&habit).Error
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (hr *habitRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Habit, error) {
	var results []*types.Habit
	err := hr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (hr *habitRepo) Update(ctx context.Context, tx *gorm.DB, habit *types.Habit) (*types.Habit, error) {
	if err := hr.conn(tx).WithContext(ctx).Save(habit).Error; err != nil {
		return nil, err
	}
	return habit, nil
}

func (hr *habitRepo) Delete(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) error {
	return hr.conn(tx).WithContext(ctx).
		Where("id = ?", habitID).
		Delete(&types.Habit{}).Error
}
