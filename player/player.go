// Package player runs one participant's board: the active piece, its queue,
// collisions, locking, scoring, gravity and the per-action cooldowns.
package player

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/tetrisserver/board"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/piece"
)

// Settings are fixed by the room for the participant's stay.
type Settings struct {
	Mode           models.GameMode
	FrameDuration  time.Duration
	FastMultiplier float64
	MoveCooldown   time.Duration
	SpawnCooldown  time.Duration
}

// LinesCleared describes one clear event.
type LinesCleared struct {
	Player      string `json:"player"`
	Count       int    `json:"count"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// Player 房间中的一个参与者
type Player struct {
	ID   string
	conn Conn

	mutex     sync.Mutex
	room      RoomContext
	settings  Settings
	scheduler Scheduler

	queue  []*piece.Piece
	cursor int
	active *piece.Piece
	grid   *board.Grid
	rows   int
	cols   int

	score int
	level int
	lines int
	lost  bool

	// playing is set between StartMatch and StopGravity; gravity ticks and
	// penalties outside that window are dropped.
	playing   bool
	limiters  map[Action]*rate.Limiter
	gravityID int64

	// gravityGen identifies the live gravity timer; never reset.
	gravityGen uint64
}

func New(id string, conn Conn) *Player {
	return &Player{ID: id, conn: conn}
}

func (p *Player) GetID() string {
	return p.ID
}

// Conn returns the connection handle, nil for a detached participant.
func (p *Player) Conn() Conn {
	return p.conn
}

// Send writes to the participant's connection.
func (p *Player) Send(event string, data []byte) error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Send(event, data)
}

// Room returns the room the participant is in, or nil.
func (p *Player) Room() RoomContext {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.room
}

// JoinRoom attaches the participant to a room and clears any match state.
func (p *Player) JoinRoom(room RoomContext, settings Settings, scheduler Scheduler) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.resetLocked()
	p.room = room
	p.settings = settings
	p.scheduler = scheduler
}

// LeaveRoom detaches the participant and cancels its gravity.
func (p *Player) LeaveRoom() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.resetLocked()
	p.room = nil
	p.scheduler = nil
}

// Reset clears pieces, grid, stats and the lost flag between matches.
func (p *Player) Reset() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.resetLocked()
}

func (p *Player) resetLocked() {
	p.cancelGravityLocked()
	p.playing = false
	p.queue = nil
	p.cursor = 0
	p.active = nil
	p.grid = nil
	p.score = 0
	p.level = 0
	p.lines = 0
	p.lost = false
	p.limiters = nil
}

// StartMatch installs the participant's own copy of the shared sequence,
// a fresh rows x cols grid and the first piece, then starts gravity.
func (p *Player) StartMatch(queue []*piece.Piece, rows, cols int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.resetLocked()
	p.queue = queue
	p.rows, p.cols = rows, cols
	p.grid = board.New(rows, cols)
	p.limiters = map[Action]*rate.Limiter{
		ActionMove:  newLimiter(p.settings.MoveCooldown),
		ActionSpawn: newLimiter(p.settings.SpawnCooldown),
	}
	p.playing = true

	if !p.spawnNextLocked() {
		p.markLostLocked()
		return
	}
	p.scheduleGravityLocked()
}

// StopGravity ends the participant's match: no more gravity or penalties.
func (p *Player) StopGravity() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.playing = false
	p.cancelGravityLocked()
}

func newLimiter(cooldown time.Duration) *rate.Limiter {
	if cooldown <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(cooldown), 1)
}

// allowLocked consumes the cooldown of a; false means the command is dropped.
func (p *Player) allowLocked(a Action) bool {
	limiter, ok := p.limiters[a]
	if !ok {
		return true
	}
	return limiter.Allow()
}

// MarkLost flags the participant as lost. It reports false when the
// participant had already lost, so callers notify exactly once.
func (p *Player) MarkLost() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.markLostLocked()
}

func (p *Player) markLostLocked() bool {
	if p.lost {
		return false
	}
	p.lost = true
	p.active = nil
	p.cancelGravityLocked()
	return true
}

func (p *Player) HasLost() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.lost
}

func (p *Player) HasActivePiece() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.active != nil
}

// AddPenalty injects n indestructible rows. An active piece pushed into
// the stack is lifted; when it cannot be lifted the participant loses.
// It reports whether this call made the participant lose.
func (p *Player) AddPenalty(n int) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.playing || p.lost || p.grid == nil || n <= 0 {
		return false
	}
	p.grid.AddPenaltyLines(n)

	if p.active == nil || p.grid.IsValidPosition(p.active.Shape, p.active.Position) {
		return false
	}
	pos := p.active.Position
	for y := pos.Y - 1; y >= pos.Y-p.rows; y-- {
		lifted := piece.Position{X: pos.X, Y: y}
		if p.grid.IsValidPosition(p.active.Shape, lifted) {
			p.active.Position = lifted
			return false
		}
	}
	return p.markLostLocked()
}
