package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/gamification"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type UnlockedAchievements struct {
	All         []*types.Achievement            `json:"all"`
	Total       int                             `json:"total"`
	ByRarity    map[string][]*types.Achievement `json:"by_rarity"`
	TotalPoints int                             `json:"total_points"`
}

type AvailableAchievement struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Icon        string `json:"icon"`
	Rarity      string `json:"rarity"`
	Requirement int    `json:"requirement"`
}

type AchievementStats struct {
	TotalUnlocked        int            `json:"total_unlocked"`
	TotalAvailable       int            `json:"total_available"`
	CompletionPercentage int            `json:"completion_percentage"`
	TotalPoints          int            `json:"total_points"`
	ByRarity             map[string]int `json:"by_rarity"`
}

type AchievementService interface {
	ListUnlocked(ctx context.Context, userID uuid.UUID) (*UnlockedAchievements, error)
	ListAvailable(ctx context.Context, userID uuid.UUID) ([]AvailableAchievement, error)
	Stats(ctx context.Context, userID uuid.UUID) (*AchievementStats, error)
}

type achievementService struct {
	db              *gorm.DB
	log             *logger.Logger
	achievementRepo repos.AchievementRepo
	rules           []gamification.Rule
}

func NewAchievementService(db *gorm.DB, log *logger.Logger, achievementRepo repos.AchievementRepo, rules []gamification.Rule) AchievementService {
	serviceLog := log.With("service", "AchievementService")
	return &achievementService{db: db, log: serviceLog, achievementRepo: achievementRepo, rules: rules}
}

func (as *achievementService) ListUnlocked(ctx context.Context, userID uuid.UUID) (*UnlockedAchievements, error) {
	unlocked, err := as.achievementRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to list achievements: %w", err))
	}
	byRarity := map[string][]*types.Achievement{
		gamification.RarityBronze:   {},
		gamification.RaritySilver:   {},
		gamification.RarityGold:     {},
		gamification.RarityPlatinum: {},
	}
	totalPoints := 0
	for _, achievement := range unlocked {
		byRarity[achievement.Rarity] = append(byRarity[achievement.Rarity], achievement)
		totalPoints += achievement.Points
	}
	return &UnlockedAchievements{
		All:         unlocked,
		Total:       len(unlocked),
		ByRarity:    byRarity,
		TotalPoints: totalPoints,
	}, nil
}

func (as *achievementService) ListAvailable(ctx context.Context, userID uuid.UUID) ([]AvailableAchievement, error) {
	unlockedTypes, err := as.achievementRepo.ListTypesByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to list unlocked types: %w", err))
	}
	seen := make(map[string]bool, len(unlockedTypes))
	for _, t := range unlockedTypes {
		seen[t] = true
	}
	available := []AvailableAchievement{}
	for _, rule := range as.rules {
		if seen[rule.Type] {
			continue
		}
		available = append(available, AvailableAchievement{
			Type:        rule.Type,
			Title:       rule.Title,
			Description: rule.Description,
			Points:      rule.Points,
			Icon:        rule.Icon,
			Rarity:      rule.Rarity,
			Requirement: rule.Threshold,
		})
	}
	return available, nil
}

func (as *achievementService) Stats(ctx context.Context, userID uuid.UUID) (*AchievementStats, error) {
	unlocked, err := as.achievementRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to list achievements: %w", err))
	}
	byRarity := map[string]int{
		gamification.RarityBronze:   0,
		gamification.RaritySilver:   0,
		gamification.RarityGold:     0,
		gamification.RarityPlatinum: 0,
	}
	totalPoints := 0
	for _, achievement := range unlocked {
		byRarity[achievement.Rarity]++
		totalPoints += achievement.Points
	}
	totalAvailable := len(as.rules)
	percentage := 0
	if totalAvailable > 0 {
		percentage = len(unlocked) * 100 / totalAvailable
	}
	return &AchievementStats{
		TotalUnlocked:        len(unlocked),
		TotalAvailable:       totalAvailable,
		CompletionPercentage: percentage,
		TotalPoints:          totalPoints,
		ByRarity:             byRarity,
	}, nil
}
