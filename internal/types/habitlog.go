package types

import (
	"time"

	"github.com/google/uuid"
)

// HabitLog is append-only; rows are never updated or deleted by the
// completion engine.
type HabitLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HabitID      uuid.UUID `gorm:"index;not null" json:"habit_id"`
	Habit        *Habit    `gorm:"constraint:OnDelete:CASCADE;foreignKey:HabitID;references:ID" json:"-"`
	CompletedAt  time.Time `gorm:"not null;index;column:completed_at" json:"completed_at"`
	Note         string    `gorm:"column:note" json:"note"`
	PointsEarned int       `gorm:"not null;column:points_earned" json:"points_earned"`
	CreatedAt    time.Time `gorm:"not null" json:"-"`
}

func (HabitLog) TableName() string {
	return "habit_log"
}
