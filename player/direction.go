package player

import (
	"github.com/wfunc/tetrisserver/errs"
)

// Direction is the move-piece command argument.
type Direction string

const (
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"    // rotate
	DirSpace Direction = "space" // hard drop
	DirSwap  Direction = "swap"  // swap with the next queued piece
)

// Action is a rate-limited action kind. Each kind has its own cooldown.
type Action int

const (
	ActionMove Action = iota
	ActionSpawn
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirDown, DirLeft, DirRight, DirUp, DirSpace, DirSwap:
		return d, nil
	case "":
		return "", errs.New(errs.KindValidation, "direction is required")
	}
	return "", errs.New(errs.KindValidation, "unknown direction "+s)
}

func (d Direction) action() Action {
	if d == DirSpace {
		return ActionSpawn
	}
	return ActionMove
}
