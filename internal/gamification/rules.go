package gamification

import (
	"fmt"

	"github.com/yungbote/habitflow-backend/internal/types"
)

// Rule is one row of the static achievement table. The table is ordered
// by ascending milestone so unlocks are emitted smallest first.
type Rule struct {
	Type        string
	Threshold   int
	Points      int
	Rarity      string
	Icon        string
	Title       string
	Description string
}

func (r Rule) Unlocks(streak *types.HabitStreak) bool {
	if streak == nil {
		return false
	}
	return streak.CurrentStreak >= r.Threshold
}

const (
	RarityBronze   = "bronze"
	RaritySilver   = "silver"
	RarityGold     = "gold"
	RarityPlatinum = "platinum"
)

var streakRules = []Rule{
	{Type: "streak_7", Threshold: 7, Points: 25, Rarity: RaritySilver, Icon: "🔥", Title: "7 days in a row", Description: "Completed a habit 7 days in a row"},
	{Type: "streak_30", Threshold: 30, Points: 50, Rarity: RarityGold, Icon: "💎", Title: "30 days in a row", Description: "Completed a habit 30 days in a row"},
	{Type: "streak_100", Threshold: 100, Points: 100, Rarity: RarityPlatinum, Icon: "👑", Title: "100 days in a row", Description: "Completed a habit 100 days in a row"},
	{Type: "streak_365", Threshold: 365, Points: 250, Rarity: RarityPlatinum, Icon: "🏆", Title: "365 days in a row", Description: "Completed a habit 365 days in a row"},
}

// StreakRules returns the rule table in evaluation order.
func StreakRules() []Rule {
	return streakRules
}

// ValidateRules runs at process start. A malformed table is a
// programming error, not a runtime condition.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	prevThreshold := 0
	for i, r := range rules {
		if r.Type == "" {
			return fmt.Errorf("rule %d: empty type", i)
		}
		if seen[r.Type] {
			return fmt.Errorf("rule %d: duplicate type %q", i, r.Type)
		}
		seen[r.Type] = true
		if r.Threshold <= prevThreshold {
			return fmt.Errorf("rule %q: thresholds must ascend, got %d after %d", r.Type, r.Threshold, prevThreshold)
		}
		prevThreshold = r.Threshold
		if r.Points <= 0 {
			return fmt.Errorf("rule %q: points must be positive", r.Type)
		}
		switch r.Rarity {
		case RarityBronze, RaritySilver, RarityGold, RarityPlatinum:
		default:
			return fmt.Errorf("rule %q: unknown rarity %q", r.Type, r.Rarity)
		}
	}
	return nil
}
