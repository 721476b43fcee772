package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
)

type UserProfile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	TotalPoints int       `json:"total_points"`
	Level       int       `json:"level"`
}

type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	TotalPoints int       `json:"total_points"`
	Level       int       `json:"level"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
	MyRank  int                `json:"my_rank"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	GetLeaderboard(ctx context.Context, userID uuid.UUID, limit int) (*Leaderboard, error)
}

type userService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	pointsPerLevel int
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, pointsPerLevel int) UserService {
	serviceLog := log.With("service", "UserService")
	if pointsPerLevel <= 0 {
		pointsPerLevel = DefaultPointsPerLevel
	}
	return &userService{db: db, log: serviceLog, userRepo: userRepo, pointsPerLevel: pointsPerLevel}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("user not found"))
		}
		return nil, apierr.Internal(fmt.Errorf("Failed to load user: %w", err))
	}
	return &UserProfile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		TotalPoints: user.TotalPoints,
		Level:       LevelForPoints(user.TotalPoints, us.pointsPerLevel),
	}, nil
}

func (us *userService) GetLeaderboard(ctx context.Context, userID uuid.UUID, limit int) (*Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	top, err := us.userRepo.TopByPoints(ctx, nil, limit)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to load leaderboard: %w", err))
	}
	entries := make([]LeaderboardEntry, 0, len(top))
	for _, user := range top {
		entries = append(entries, LeaderboardEntry{
			UserID:      user.ID,
			Username:    user.Username,
			TotalPoints: user.TotalPoints,
			Level:       LevelForPoints(user.TotalPoints, us.pointsPerLevel),
		})
	}
	rank, err := us.userRepo.RankByPoints(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to compute rank: %w", err))
	}
	return &Leaderboard{Entries: entries, MyRank: rank}, nil
}
