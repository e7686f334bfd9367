package player

import (
	"github.com/wfunc/tetrisserver/errs"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/piece"
)

// effects are collected under the participant lock and dispatched to the
// room after it is released.
type effects struct {
	cleared *LinesCleared
	penalty int
	publish bool
	lost    bool
}

// Move applies one move-piece command. A command arriving inside its
// action's cooldown is dropped without error or broadcast.
func (p *Player) Move(dir Direction) error {
	p.mutex.Lock()
	if p.active == nil {
		p.mutex.Unlock()
		return errs.ErrNoActivePiece
	}
	if !p.allowLocked(dir.action()) {
		p.mutex.Unlock()
		return nil
	}

	var fx effects
	switch dir {
	case DirLeft:
		fx.publish = p.shiftLocked(-1)
	case DirRight:
		fx.publish = p.shiftLocked(1)
	case DirDown:
		fx = p.moveDownLocked()
	case DirUp:
		fx.publish = p.rotateLocked()
	case DirSpace:
		fx = p.hardDropLocked()
	case DirSwap:
		// state goes out even when the swap was reverted
		p.swapLocked()
		fx.publish = true
	}
	room := p.room
	p.mutex.Unlock()

	p.dispatch(room, fx)
	return nil
}

func (p *Player) shiftLocked(dx int) bool {
	next := piece.Position{X: p.active.Position.X + dx, Y: p.active.Position.Y}
	if !p.grid.IsValidMove(p.active, next, false) {
		return false
	}
	p.active.Position = next
	return true
}

// moveDownLocked moves one row down, landing the piece when it cannot.
func (p *Player) moveDownLocked() effects {
	next := piece.Position{X: p.active.Position.X, Y: p.active.Position.Y + 1}
	if p.grid.IsValidMove(p.active, next, false) {
		p.active.Position = next
		return effects{publish: true}
	}
	return p.landLocked()
}

func (p *Player) hardDropLocked() effects {
	p.active.Position = p.grid.DropPosition(p.active)
	return p.landLocked()
}

// rotateLocked turns the piece clockwise, trying horizontal wall-kicks when
// the turned shape does not fit in place. Nothing changes on failure.
func (p *Player) rotateLocked() bool {
	rotated := p.active.Rotated(piece.Clockwise)
	pos := p.active.Position

	if p.grid.IsValidPosition(rotated, pos) {
		p.active.Shape = rotated
		return true
	}
	for _, dx := range p.kickOffsets() {
		candidate := piece.Position{X: pos.X + dx, Y: pos.Y}
		if p.grid.IsValidPosition(rotated, candidate) {
			p.active.Shape = rotated
			p.active.Position = candidate
			return true
		}
	}
	return false
}

// kickOffsets probes away from the nearer wall first.
func (p *Player) kickOffsets() []int {
	center := p.active.Position.X + p.active.Size()/2
	if center < p.cols/2 {
		return []int{1, -1, 2, -2}
	}
	return []int{-1, 1, -2, 2}
}

// swapLocked exchanges the active piece with the next queued one. Both are
// restored when the result does not fit.
func (p *Player) swapLocked() bool {
	if len(p.queue) == 0 {
		return false
	}
	next := p.queue[p.cursor]
	activeBefore := p.active.Clone()
	nextBefore := next.Clone()

	p.active.SwapWith(next)
	if p.grid.IsValidPosition(p.active.Shape, p.active.Position) {
		return true
	}
	p.active = activeBefore
	p.queue[p.cursor] = nextBefore
	return false
}

// landLocked locks the active piece, clears lines, scores and spawns the
// next piece.
func (p *Player) landLocked() effects {
	fx := effects{publish: true}

	p.grid.Merge(p.active)
	p.active = nil

	if cleared := p.grid.ClearLines(); cleared > 0 {
		entry := ScoreFor(cleared)
		p.score += entry.Points
		p.lines += cleared
		fx.cleared = &LinesCleared{
			Player:      p.ID,
			Count:       cleared,
			Points:      entry.Points,
			Description: entry.Description,
		}
		if cleared-1 > 0 {
			fx.penalty = cleared - 1
		}
		if level := LevelFor(p.lines); level != p.level {
			p.level = level
			p.scheduleGravityLocked()
		}
	}

	if !p.spawnNextLocked() {
		fx.lost = p.markLostLocked()
	}
	return fx
}

// spawnNextLocked takes the next queued piece (the cursor wraps) and places
// it at the default spawn position. It reports false when the spawn collides.
func (p *Player) spawnNextLocked() bool {
	if len(p.queue) == 0 {
		return false
	}
	next := p.queue[p.cursor].Clone()
	p.cursor = (p.cursor + 1) % len(p.queue)

	next.Position.X = (p.cols - next.Size()) / 2
	next.TrimTop()
	if !p.grid.IsValidPosition(next.Shape, next.Position) {
		return false
	}
	p.active = next
	return true
}

func (p *Player) dispatch(room RoomContext, fx effects) {
	if room == nil {
		return
	}
	if fx.cleared != nil {
		room.OnLinesCleared(p, *fx.cleared)
	}
	if fx.penalty > 0 {
		if err := room.HandlePenalties(p, fx.penalty); err != nil {
			logger.Log.Warnf("Room %s: penalties from %s dropped: %v", room.GetID(), p.ID, err)
		}
	}
	if fx.publish {
		room.PublishState(p)
	}
	if fx.lost {
		room.OnPlayerLost(p)
	}
}
