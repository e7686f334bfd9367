package state

import (
	"github.com/wfunc/tetrisserver/logger"
)

// 房间生命周期状态 ID
const (
	Waiting    = "waiting"
	InProgress = "in_progress"
	Finished   = "finished"
	Aborted    = "aborted"
)

// RoomState is one lifecycle phase of a room. Enter/Exit hooks are optional.
type RoomState struct {
	ID     string
	RoomID string
	Enter  func()
	Exit   func()
}

func (s *RoomState) GetID() string {
	return s.ID
}

func (s *RoomState) OnEnter() {
	logger.Log.Debugf("Room %s entered state %s", s.RoomID, s.ID)
	if s.Enter != nil {
		s.Enter()
	}
}

func (s *RoomState) OnExit() {
	if s.Exit != nil {
		s.Exit()
	}
}

// Lifecycle bundles a room's machine and its four states.
type Lifecycle struct {
	*BaseStateMachine
	states map[string]*RoomState
}

// NewLifecycle builds the room machine starting in Waiting:
// Waiting -> InProgress -> Finished | Aborted, Finished -> Waiting (restart).
func NewLifecycle(roomID string) *Lifecycle {
	states := map[string]*RoomState{}
	for _, id := range []string{Waiting, InProgress, Finished, Aborted} {
		states[id] = &RoomState{ID: id, RoomID: roomID}
	}

	sm := NewBaseStateMachine(states[Waiting])
	sm.AddTransition(states[Waiting], states[InProgress], nil)
	sm.AddTransition(states[InProgress], states[Finished], nil)
	sm.AddTransition(states[InProgress], states[Aborted], nil)
	sm.AddTransition(states[Finished], states[Waiting], nil)

	return &Lifecycle{BaseStateMachine: sm, states: states}
}

// Status returns the current state ID.
func (l *Lifecycle) Status() string {
	return l.GetCurrentState().GetID()
}

// Is reports whether the current state is id.
func (l *Lifecycle) Is(id string) bool {
	return l.Status() == id
}

// Transition moves to the state with the given ID.
func (l *Lifecycle) Transition(id string) error {
	next, ok := l.states[id]
	if !ok {
		return ErrTransitionNotAllowed
	}
	return l.ChangeState(next)
}

// State returns the state object for id so callers can attach hooks.
func (l *Lifecycle) State(id string) *RoomState {
	return l.states[id]
}
