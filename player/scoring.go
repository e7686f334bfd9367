package player

import (
	"time"

	"github.com/wfunc/tetrisserver/models"
)

// ScoreEntry is the reward for clearing a number of lines at once.
type ScoreEntry struct {
	Points      int
	Description string
}

var scoreTable = map[int]ScoreEntry{
	1: {Points: 40, Description: "Single"},
	2: {Points: 100, Description: "Double"},
	3: {Points: 300, Description: "Triple"},
	4: {Points: 1200, Description: "Tetris"},
}

// ScoreFor returns the entry for k cleared lines; anything above 4 scores as 4.
func ScoreFor(k int) ScoreEntry {
	if k > 4 {
		k = 4
	}
	return scoreTable[k]
}

// LinesPerLevel is how many cleared lines raise the level by one.
const LinesPerLevel = 10

// frames per row drop, indexed by level
var gravityFrames = []int{
	48, 43, 38, 33, 28, 23, 18, 13, 8, 6, // 0-9
	5, 5, 5, // 10-12
	4, 4, 4, // 13-15
	3, 3, 3, // 16-18
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 19-28
	1, // 29+
}

// DefaultFrameDuration is one frame at 60 Hz.
const DefaultFrameDuration = time.Second / 60

func LevelFor(lines int) int {
	return lines / LinesPerLevel
}

// GravityDelay is the time between two gravity steps at level.
func GravityDelay(level int, s Settings) time.Duration {
	level = max(level, 0)
	level = min(level, len(gravityFrames)-1)

	frame := s.FrameDuration
	if frame <= 0 {
		frame = DefaultFrameDuration
	}
	delay := time.Duration(gravityFrames[level]) * frame
	if s.Mode == models.ModeFastPaced && s.FastMultiplier > 0 {
		delay = time.Duration(float64(delay) * s.FastMultiplier)
	}
	return delay
}
