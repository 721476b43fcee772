package types

import (
	"time"

	"github.com/google/uuid"
)

// HabitStreak is the per-habit streak ledger row. Mutated only inside
// the completion transaction; LastCompleted is a UTC calendar day.
type HabitStreak struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	HabitID       uuid.UUID  `gorm:"uniqueIndex;not null" json:"habit_id"`
	Habit         *Habit     `gorm:"constraint:OnDelete:CASCADE;foreignKey:HabitID;references:ID" json:"-"`
	CurrentStreak int        `gorm:"not null;default:0;column:current_streak" json:"current_streak"`
	LongestStreak int        `gorm:"not null;default:0;column:longest_streak" json:"longest_streak"`
	LastCompleted *time.Time `gorm:"column:last_completed" json:"last_completed"`
	CreatedAt     time.Time  `gorm:"not null" json:"-"`
	UpdatedAt     time.Time  `gorm:"not null" json:"-"`
}

func (HabitStreak) TableName() string {
	return "habit_streak"
}
