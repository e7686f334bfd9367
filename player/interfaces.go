package player

import "time"

// Conn is the outbound side of the participant's connection. The transport
// layer owns it; a session satisfies it.
type Conn interface {
	GetID() string
	Send(event string, data []byte) error
}

// Scheduler runs the gravity timers.
type Scheduler interface {
	AddTimer(delay time.Duration, interval time.Duration, callback func()) int64
	RemoveTimer(timerId int64)
}

// RoomContext is the room as seen by a participant. It breaks the import
// cycle between room and player. Calls into it are never made while the
// participant's own lock is held.
type RoomContext interface {
	GetID() string
	HandlePenalties(author *Player, lines int) error
	OnLinesCleared(p *Player, ev LinesCleared)
	OnPlayerLost(p *Player)
	PublishState(p *Player)
}
