package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/gamification"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type CompletionResult struct {
	Log          *types.HabitLog      `json:"log"`
	Streak       *types.HabitStreak   `json:"streak"`
	Achievements []*types.Achievement `json:"achievements"`
}

// CompletionService processes one habit completion as a single atomic
// unit: append the log entry, advance the streak ledger, credit points,
// evaluate achievement rules and credit their bonuses. Either all of it
// commits or none of it does.
type CompletionService interface {
	Complete(ctx context.Context, habitID, userID uuid.UUID, note string) (*CompletionResult, error)
}

type completionService struct {
	db              *gorm.DB
	log             *logger.Logger
	habitRepo       repos.HabitRepo
	streakRepo      repos.HabitStreakRepo
	habitLogRepo    repos.HabitLogRepo
	achievementRepo repos.AchievementRepo
	userRepo        repos.UserRepo
	notifier        Notifier
	rules           []gamification.Rule

	pointsPerCompletion int
	pointsPerLevel      int

	// one lock per habit; completions on the same habit are serialized,
	// different habits proceed in parallel
	habitLocks sync.Map
}

func NewCompletionService(
	db *gorm.DB,
	log *logger.Logger,
	habitRepo repos.HabitRepo,
	streakRepo repos.HabitStreakRepo,
	habitLogRepo repos.HabitLogRepo,
	achievementRepo repos.AchievementRepo,
	userRepo repos.UserRepo,
	notifier Notifier,
	rules []gamification.Rule,
	pointsPerCompletion int,
	pointsPerLevel int,
) CompletionService {
	serviceLog := log.With("service", "CompletionService")
	if pointsPerCompletion <= 0 {
		pointsPerCompletion = DefaultPointsPerCompletion
	}
	if pointsPerLevel <= 0 {
		pointsPerLevel = DefaultPointsPerLevel
	}
	return &completionService{
		db:                  db,
		log:                 serviceLog,
		habitRepo:           habitRepo,
		streakRepo:          streakRepo,
		habitLogRepo:        habitLogRepo,
		achievementRepo:     achievementRepo,
		userRepo:            userRepo,
		notifier:            notifier,
		rules:               rules,
		pointsPerCompletion: pointsPerCompletion,
		pointsPerLevel:      pointsPerLevel,
	}
}

func (cs *completionService) habitLock(habitID uuid.UUID) *sync.Mutex {
	lock, _ := cs.habitLocks.LoadOrStore(habitID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (cs *completionService) Complete(ctx context.Context, habitID, userID uuid.UUID, note string) (*CompletionResult, error) {
	ctx, span := otel.Tracer("habitflow/completion").Start(ctx, "completion.Complete",
		trace.WithAttributes(attribute.String("habit.id", habitID.String())))
	defer span.End()

	// ownership/active check happens before any mutation
	habit, err := cs.habitRepo.GetOwnedByUser(ctx, nil, habitID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("active habit not found"))
		}
		return nil, apierr.Internal(fmt.Errorf("Failed to load habit: %w", err))
	}
	if !habit.IsActive {
		return nil, apierr.NotFound(fmt.Errorf("active habit not found"))
	}

	user, err := cs.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to load user: %w", err))
	}
	levelBefore := LevelForPoints(user.TotalPoints, cs.pointsPerLevel)

	lock := cs.habitLock(habitID)
	lock.Lock()
	defer lock.Unlock()

	result, advanced, err := cs.runTransaction(ctx, habit, userID, note)
	if err != nil && isDuplicateKey(err) {
		// a racing completion won an achievement insert; one retry
		// observes the committed unlock and skips it
		cs.log.Warn("Completion transaction hit duplicate key, retrying once", "habit_id", habitID)
		result, advanced, err = cs.runTransaction(ctx, habit, userID, note)
	}
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Internal(fmt.Errorf("Completion transaction failed: %w", err))
	}

	cs.publishResult(userID, habitID, result, advanced, levelBefore)
	return result, nil
}

func (cs *completionService) runTransaction(ctx context.Context, habit *types.Habit, userID uuid.UUID, note string) (*CompletionResult, bool, error) {
	now := time.Now().UTC()
	var result *CompletionResult
	var advanced bool

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := &types.HabitLog{
			ID:           uuid.New(),
			HabitID:      habit.ID,
			CompletedAt:  now,
			Note:         note,
			PointsEarned: cs.pointsPerCompletion,
		}
		if _, err := cs.habitLogRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("Failed to create habit log: %w", err)
		}

		streak, err := cs.streakRepo.GetByHabitID(ctx, tx, habit.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("Failed to load streak: %w", err)
			}
			// streak rows are created with the habit; tolerate legacy
			// habits missing one
			streak, err = cs.streakRepo.Create(ctx, tx, &types.HabitStreak{ID: uuid.New(), HabitID: habit.ID})
			if err != nil {
				return fmt.Errorf("Failed to create streak: %w", err)
			}
		}

		before := *streak
		after := AdvanceStreak(before, now)
		after.ID = streak.ID
		if _, err := cs.streakRepo.Update(ctx, tx, &after); err != nil {
			return fmt.Errorf("Failed to update streak: %w", err)
		}
		advanced = StreakAdvanced(before, after)

		if err := cs.userRepo.AddPoints(ctx, tx, userID, cs.pointsPerCompletion); err != nil {
			return fmt.Errorf("Failed to credit completion points: %w", err)
		}

		unlocked, err := cs.evaluateRules(ctx, tx, userID, &after, now)
		if err != nil {
			return err
		}

		result = &CompletionResult{
			Log:          entry,
			Streak:       &after,
			Achievements: unlocked,
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, advanced, nil
}

// evaluateRules walks the static rule table in order and records every
// rule that newly holds. The insert-or-ignore against the (user, type)
// unique index is the atomic check-and-insert; losing the race simply
// means no unlock and no bonus here.
func (cs *completionService) evaluateRules(ctx context.Context, tx *gorm.DB, userID uuid.UUID, streak *types.HabitStreak, now time.Time) ([]*types.Achievement, error) {
	unlocked := []*types.Achievement{}
	for _, rule := range cs.rules {
		if !rule.Unlocks(streak) {
			continue
		}
		achievement := &types.Achievement{
			ID:          uuid.New(),
			UserID:      userID,
			Type:        rule.Type,
			Title:       rule.Title,
			Description: rule.Description,
			Points:      rule.Points,
			Icon:        rule.Icon,
			Rarity:      rule.Rarity,
			UnlockedAt:  now,
		}
		inserted, err := cs.achievementRepo.InsertIfAbsent(ctx, tx, achievement)
		if err != nil {
			return nil, fmt.Errorf("Failed to record achievement %s: %w", rule.Type, err)
		}
		if !inserted {
			continue
		}
		if err := cs.userRepo.AddPoints(ctx, tx, userID, rule.Points); err != nil {
			return nil, fmt.Errorf("Failed to credit achievement points: %w", err)
		}
		unlocked = append(unlocked, achievement)
	}
	return unlocked, nil
}

// publishResult runs after commit. Broadcast failures are isolated in
// the hub and never fail the request.
func (cs *completionService) publishResult(userID, habitID uuid.UUID, result *CompletionResult, advanced bool, levelBefore int) {
	cs.notifier.HabitCompleted(userID, result)
	for _, achievement := range result.Achievements {
		cs.notifier.AchievementUnlocked(userID, achievement)
	}
	cur := result.Streak.CurrentStreak
	if advanced && (cur%7 == 0 || cur%30 == 0) {
		cs.notifier.StreakMilestone(userID, habitID, cur)
	}

	user, err := cs.userRepo.GetByID(context.Background(), nil, userID)
	if err != nil {
		cs.log.Warn("Failed to reload user for level check", "error", err)
		return
	}
	levelAfter := LevelForPoints(user.TotalPoints, cs.pointsPerLevel)
	if levelAfter > levelBefore {
		cs.notifier.LevelUp(userID, levelAfter, user.TotalPoints)
	}
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
