// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/tetrisserver/errs"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/room"
	"github.com/wfunc/tetrisserver/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, data []byte) error
	BroadcastToAll(event string, data []byte) error
	BroadcastToUsers(usernames []string, event string, data []byte) error
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, event string, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return errs.ErrRoomNotFound
	}

	// Players returns a copy; sending happens without the room lock
	for _, p := range r.Players() {
		if err := p.Send(event, data); err != nil {
			// 发送失败由读循环负责清理连接
			logger.Log.Debugf("broadcast %s to %s failed: %v", event, p.ID, err)
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(event string, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(event, data); err != nil {
			logger.Log.Debugf("broadcast %s to session %s failed: %v", event, s.ID, err)
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToUsers(usernames []string, event string, data []byte) error {
	for _, username := range usernames {
		s, ok := b.sessionManager.GetByUsername(username)
		if !ok {
			continue
		}
		if err := s.Send(event, data); err != nil {
			logger.Log.Debugf("send %s to %s failed: %v", event, username, err)
		}
	}
	return nil
}
