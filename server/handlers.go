package server

import (
	"context"
	"encoding/json"

	"github.com/wfunc/tetrisserver/errs"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/network"
	"github.com/wfunc/tetrisserver/player"
	"github.com/wfunc/tetrisserver/room"
	"github.com/wfunc/tetrisserver/session"
)

var errUnknownEvent = errs.New(errs.KindValidation, "unknown event")

func (s *GameServer) send(sess *session.Session, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("marshal %s: %v", event, err)
		return
	}
	if err := sess.Send(event, data); err != nil {
		logger.Log.Debugf("Session %s: send %s: %v", sess.GetID(), event, err)
	}
}

// sendError turns err into one error event. Domain errors are shown as is;
// anything else is logged and hidden.
func (s *GameServer) sendError(sess *session.Session, err error) {
	message := "internal error"
	if errs.IsDomain(err) {
		message = err.Error()
	} else {
		logger.Log.Errorf("Session %s: %v", sess.GetID(), err)
	}
	s.send(sess, network.EventError, network.ErrorMessage{Message: message})
}

func (s *GameServer) requirePlayer(sess *session.Session) (*player.Player, error) {
	p := sess.Player()
	if p == nil {
		return nil, errs.ErrNoIdentity
	}
	return p, nil
}

// currentRoom resolves the room the participant is in.
func (s *GameServer) currentRoom(p *player.Player) (*room.Room, error) {
	ctx := p.Room()
	if ctx == nil {
		return nil, errs.ErrNotInRoom
	}
	r, ok := s.roomManager.GetRoom(ctx.GetID())
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	return r, nil
}

func (s *GameServer) handlePing(sess *session.Session, _ json.RawMessage) error {
	s.send(sess, network.EventPong, struct{}{})
	return nil
}

func (s *GameServer) handleSetUsername(sess *session.Session, data json.RawMessage) error {
	var req network.SetUsernameRequest
	if err := network.Unmarshal(data, &req); err != nil {
		return err
	}
	if p := sess.Player(); p != nil && p.Room() != nil {
		return errs.ErrAlreadyInRoom
	}

	p := player.New(req.Username, sess)
	if !s.sessionManager.ClaimUsername(sess, req.Username, p) {
		return errs.ErrUsernameTaken
	}

	history := s.playerService.LoadHistory(context.Background(), req.Username)
	stats := models.Summarize(req.Username, history)
	logger.Log.Infof("Session %s is now %s", sess.GetID(), req.Username)
	s.send(sess, network.EventUsernameSet, network.UsernameSet{
		Username: req.Username,
		Stats:    stats,
		History:  history,
	})
	return nil
}

func (s *GameServer) handleJoinRoom(sess *session.Session, data json.RawMessage) error {
	p, err := s.requirePlayer(sess)
	if err != nil {
		return err
	}
	var req network.JoinRoomRequest
	if err := network.Unmarshal(data, &req); err != nil {
		return err
	}

	r, created, err := s.roomManager.JoinRoom(p, room.Options{ID: req.Room, Mode: req.Mode, Solo: req.Solo})
	if err != nil {
		return err
	}
	s.updateRoomGauge()

	if created {
		s.send(sess, network.EventRoomCreated, network.RoomInfo{Room: r.ID, Mode: r.Mode, Solo: r.Solo})
	}
	s.send(sess, network.EventRoomJoined, r.Info())
	return nil
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, _ json.RawMessage) error {
	p, err := s.requirePlayer(sess)
	if err != nil {
		return err
	}
	r, err := s.roomManager.LeaveRoom(p)
	if err != nil {
		return err
	}
	s.updateRoomGauge()
	s.send(sess, network.EventRoomLeft, network.RoomInfo{Room: r.ID})
	return nil
}

func (s *GameServer) handleStartGame(sess *session.Session, _ json.RawMessage) error {
	p, r, err := s.ownerRoom(sess)
	if err != nil {
		return err
	}
	logger.Log.Infof("Player %s starts room %s", p.ID, r.ID)
	return r.Start()
}

func (s *GameServer) handleRestartGame(sess *session.Session, _ json.RawMessage) error {
	p, r, err := s.ownerRoom(sess)
	if err != nil {
		return err
	}
	logger.Log.Infof("Player %s restarts room %s", p.ID, r.ID)
	return r.Restart()
}

func (s *GameServer) ownerRoom(sess *session.Session) (*player.Player, *room.Room, error) {
	p, err := s.requirePlayer(sess)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.currentRoom(p)
	if err != nil {
		return nil, nil, err
	}
	if err := r.RequireOwner(p); err != nil {
		return nil, nil, err
	}
	return p, r, nil
}

func (s *GameServer) handleMovePiece(sess *session.Session, data json.RawMessage) error {
	p, err := s.requirePlayer(sess)
	if err != nil {
		return err
	}
	var req network.MovePieceRequest
	if err := network.Unmarshal(data, &req); err != nil {
		return err
	}
	r, err := s.currentRoom(p)
	if err != nil {
		return err
	}
	return r.HandlePieceMove(p, req.Dir())
}
