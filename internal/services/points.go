package services

// Default point economy, overridable through the environment at wiring
// time.
const (
	DefaultPointsPerCompletion = 10
	DefaultPointsPerLevel      = 100
)

// LevelForPoints derives the level from the points total. Level is
// never stored; it is always recomputed from the total so the two
// cannot drift.
func LevelForPoints(totalPoints, pointsPerLevel int) int {
	if pointsPerLevel <= 0 {
		pointsPerLevel = DefaultPointsPerLevel
	}
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/pointsPerLevel + 1
}
