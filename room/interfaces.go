package room

import (
	"github.com/wfunc/tetrisserver/models"
)

// Broadcaster defines the interface for broadcasting messages to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, data []byte) error
}

// ResultSink receives the per-player results of a finished match. It must
// not block; persistence runs in the background.
type ResultSink interface {
	RecordResults(results map[string]models.MatchResult)
}

// Observer is notified of gameplay counters (metrics).
type Observer interface {
	MatchStarted(mode models.GameMode)
	LinesCleared(n int)
	PenaltyLines(n int)
}

type nopObserver struct{}

func (nopObserver) MatchStarted(models.GameMode) {}
func (nopObserver) LinesCleared(int)             {}
func (nopObserver) PenaltyLines(int)             {}
