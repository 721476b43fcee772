package types

import (
	"time"

	"github.com/google/uuid"
)

type Habit struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"index;not null" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Frequency   string    `gorm:"not null;default:daily;column:frequency" json:"frequency"`
	TargetCount int       `gorm:"not null;default:1;column:target_count" json:"target_count"`
	Color       string    `gorm:"column:color" json:"color"`
	Icon        string    `gorm:"column:icon" json:"icon"`
	IsActive    bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Habit) TableName() string {
	return "habit"
}
