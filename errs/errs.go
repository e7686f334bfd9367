// Package errs holds the domain error taxonomy. Every domain error is
// reported to the client as a single error event; the connection stays open.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the command boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidState
	KindPermission
	KindValidation
	KindCapacity
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidState:
		return "invalid_state"
	case KindPermission:
		return "permission"
	case KindValidation:
		return "validation"
	case KindCapacity:
		return "capacity"
	case KindInfrastructure:
		return "infrastructure"
	}
	return "internal"
}

// GameError attaches a Kind to an error.
type GameError struct {
	Kind Kind
	Err  error
}

func (e *GameError) Error() string { return e.Err.Error() }
func (e *GameError) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &GameError{Kind: kind, Err: errors.New(msg)}
}

// Wrap tags err with kind and a context message.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &GameError{Kind: kind, Err: fmt.Errorf(format+": %w", append(args, err)...)}
}

// KindOf returns the kind of the first GameError in err's chain.
func KindOf(err error) Kind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// IsDomain reports whether err should be shown to the client.
func IsDomain(err error) bool {
	switch KindOf(err) {
	case KindInvalidState, KindPermission, KindValidation, KindCapacity:
		return true
	}
	return false
}

var (
	ErrAlreadyInRoom  = New(KindInvalidState, "already in a room")
	ErrNotInRoom      = New(KindInvalidState, "not in this room")
	ErrMatchStarted   = New(KindInvalidState, "match already started")
	ErrNotInProgress  = New(KindInvalidState, "match is not in progress")
	ErrNotFinished    = New(KindInvalidState, "match is not finished")
	ErrNoActivePiece  = New(KindInvalidState, "no active piece")
	ErrNoPlayers      = New(KindInvalidState, "room has no players")
	ErrNoIdentity     = New(KindInvalidState, "set a username first")
	ErrSoloRestricted = New(KindPermission, "solo room is reserved for its owner")
	ErrNotOwner       = New(KindPermission, "only the room owner can do that")
	ErrRoomFull       = New(KindCapacity, "room is full")
	ErrRoomNotFound   = New(KindInvalidState, "room not found")
	ErrUsernameTaken  = New(KindValidation, "username already taken")
	ErrRoomExists     = New(KindValidation, "room already exists")
)
