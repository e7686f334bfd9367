// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/tetrisserver/network"
	"github.com/wfunc/tetrisserver/player"
)

type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	LastActive time.Time
	username   string
	player     *player.Player
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) Send(event string, data []byte) error {
	s.Touch()
	return s.Conn.Send(event, data)
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Username 当前会话的身份，未设置时为空
func (s *Session) Username() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.username
}

// Player returns the participant bound to this session, nil before set-username.
func (s *Session) Player() *player.Player {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.player
}

// Bind attaches an identity and its participant to the session.
func (s *Session) Bind(username string, p *player.Player) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.username = username
	s.player = p
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByUsername returns the session holding username, if any.
func (m *Manager) GetByUsername(username string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, session := range m.sessions {
		if session.Username() == username {
			return session, true
		}
	}
	return nil, false
}

// ClaimUsername binds username to session unless another session holds it.
func (m *Manager) ClaimUsername(session *Session, username string, p *player.Player) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, other := range m.sessions {
		if other != session && other.Username() == username {
			return false
		}
	}
	session.Bind(username, p)
	return true
}

// All returns a snapshot of every session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
