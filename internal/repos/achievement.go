package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type AchievementRepo interface {
	// InsertIfAbsent is the single atomic check-and-insert for the
	// (user_id, type) uniqueness invariant. Returns false when another
	// transaction already recorded the unlock.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, achievement *types.Achievement) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Achievement, error)
	ListTypesByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	repoLog := baseLog.With("repo", "AchievementRepo")
	return &achievementRepo{db: db, log: repoLog}
}

func (ar *achievementRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

func (ar *achievementRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, achievement *types.Achievement) (bool, error) {
	result := ar.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(achievement)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (ar *achievementRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Achievement, error) {
	var results []*types.Achievement
	err := ar.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *achievementRepo) ListTypesByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	var results []string
	err := ar.conn(tx).WithContext(ctx).
		Model(&types.Achievement{}).
		Where("user_id = ?", userID).
		Pluck("type", &results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
