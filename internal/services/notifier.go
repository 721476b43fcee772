package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/habitflow-backend/internal/sse"
	"github.com/yungbote/habitflow-backend/internal/types"
)

// Notifier publishes domain events to the rooms that should see them.
// Personal events go to the user's own room; board membership changes
// go to the board room.
type Notifier interface {
	HabitCompleted(userID uuid.UUID, result *CompletionResult)
	AchievementUnlocked(userID uuid.UUID, achievement *types.Achievement)
	StreakMilestone(userID uuid.UUID, habitID uuid.UUID, currentStreak int)
	LevelUp(userID uuid.UUID, newLevel, totalPoints int)
	ReminderTriggered(userID uuid.UUID, habitID uuid.UUID, habitTitle, message string)
	UserJoinedBoard(userID uuid.UUID, boardID string)
}

type notifier struct {
	emit Emitter
}

func NewNotifier(emit Emitter) Notifier {
	return &notifier{emit: emit}
}

func (n *notifier) HabitCompleted(userID uuid.UUID, result *CompletionResult) {
	if n == nil || n.emit == nil || userID == uuid.Nil || result == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.Message{
		Room:  sse.UserRoom(userID),
		Event: sse.EventHabitCompleted,
		Data: map[string]any{
			"habitId":      result.Log.HabitID,
			"log":          result.Log,
			"streak":       result.Streak,
			"achievements": result.Achievements,
		},
	})
}

func (n *notifier) AchievementUnlocked(userID uuid.UUID, achievement *types.Achievement) {
	if n == nil || n.emit == nil || userID == uuid.Nil || achievement == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.Message{
		Room:  sse.UserRoom(userID),
		Event: sse.EventAchievementUnlocked,
		Data:  map[string]any{"achievement": achievement},
	})
}

func (n *notifier) StreakMilestone(userID uuid.UUID, habitID uuid.UUID, currentStreak int) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.Message{
		Room:  sse.UserRoom(userID),
		Event: sse.EventStreakMilestone,
		Data: map[string]any{
			"habitId":       habitID,
			"currentStreak": currentStreak,
		},
	})
}

func (n *notifier) LevelUp(userID uuid.UUID, newLevel, totalPoints int) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.Message{
		Room:  sse.UserRoom(userID),
		Event: sse.EventLevelUp,
		Data: map[string]any{
			"newLevel":    newLevel,
			"totalPoints": totalPoints,
		},
	})
}

func (n *notifier) ReminderTriggered(userID uuid.UUID, habitID uuid.UUID, habitTitle, message string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.Message{
		Room:  sse.UserRoom(userID),
		Event: sse.EventReminderTriggered,
		Data: map[string]any{
			"habitId":    habitID,
			"habitTitle": habitTitle,
			"message":    message,
		},
	})
}

func (n *notifier) UserJoinedBoard(userID uuid.UUID, boardID string) {
	if n == nil || n.emit == nil || userID == uuid.Nil || boardID == "" {
		return
	}
	n.emit.Emit(context.Background(), sse.Message{
		Room:  sse.BoardRoom(boardID),
		Event: sse.EventUserJoinedBoard,
		Data: map[string]any{
			"userId":  userID,
			"boardId": boardID,
		},
	})
}
