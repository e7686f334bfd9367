// models/models.go
package models

import (
	"fmt"
	"time"
)

// GameMode 房间的游戏模式
type GameMode string

const (
	ModeClassic   GameMode = "classic"
	ModeFastPaced GameMode = "fast"
	ModeInvisible GameMode = "invisible" // 下落中的方块对自己不可见
)

// ParseGameMode maps a wire value to a mode. Empty selects classic.
func ParseGameMode(s string) (GameMode, error) {
	switch GameMode(s) {
	case "", ModeClassic:
		return ModeClassic, nil
	case ModeFastPaced, ModeInvisible:
		return GameMode(s), nil
	}
	return "", fmt.Errorf("unknown game mode %q", s)
}

// Match outcomes.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
	OutcomeDraw = "draw"
)

// MatchResult 单局比赛结果（按玩家记录）
type MatchResult struct {
	RoomID     string    `json:"room_id"`
	Mode       GameMode  `json:"mode"`
	Solo       bool      `json:"solo"`
	Players    int       `json:"players"`
	Outcome    string    `json:"outcome"` // win/lose/draw
	Score      int       `json:"score"`
	Lines      int       `json:"lines"`
	Level      int       `json:"level"`
	FinishedAt time.Time `json:"finished_at"`
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	Username   string `json:"username"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	BestScore  int    `json:"best_score"`
	TotalLines int    `json:"total_lines"`
}

// Summarize folds a match history into stats.
func Summarize(username string, history []MatchResult) PlayerStats {
	stats := PlayerStats{Username: username, TotalGames: len(history)}
	for _, r := range history {
		switch r.Outcome {
		case OutcomeWin:
			stats.Wins++
		case OutcomeLose:
			stats.Losses++
		}
		if r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
		stats.TotalLines += r.Lines
	}
	return stats
}
