package types

import (
	"time"

	"github.com/google/uuid"
)

// Achievement is a one-time unlock. The composite unique index on
// (user_id, type) is the atomic guard against duplicate unlocks under
// concurrent completions.
type Achievement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"not null;uniqueIndex:idx_achievement_user_type" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Type        string    `gorm:"not null;uniqueIndex:idx_achievement_user_type;column:type" json:"type"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Points      int       `gorm:"not null;column:points" json:"points"`
	Icon        string    `gorm:"column:icon" json:"icon"`
	Rarity      string    `gorm:"not null;column:rarity" json:"rarity"`
	UnlockedAt  time.Time `gorm:"not null;column:unlocked_at" json:"unlocked_at"`
}

func (Achievement) TableName() string {
	return "achievement"
}
