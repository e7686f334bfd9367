package room

import (
	"sort"
	"sync"

	"github.com/wfunc/tetrisserver/errs"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/player"
	"github.com/wfunc/tetrisserver/state"
)

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms    map[string]*Room
	defaults Options
	deps     Deps
	mutex    sync.RWMutex

	// afterJoin runs between a join and the registry check (tests only).
	afterJoin func(*Room)
}

// NewRoomManager 创建一个新的房间管理器. defaults supply the board size,
// capacity and participant settings of rooms created by GetOrCreate.
func NewRoomManager(defaults Options, deps Deps) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		defaults: defaults,
		deps:     deps,
	}
}

// SetBroadcaster wires the broadcaster after construction; the broadcaster
// itself looks rooms up in the manager.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.deps.Broadcaster = b
}

// Defaults returns the options used for new rooms.
func (m *Manager) Defaults() Options {
	return m.defaults
}

func (m *Manager) withDefaults(opts Options) Options {
	d := m.defaults
	if opts.Mode == "" {
		opts.Mode = d.Mode
	}
	if opts.Mode == "" {
		opts.Mode = models.ModeClassic
	}
	if opts.Rows <= 0 {
		opts.Rows = d.Rows
	}
	if opts.Cols <= 0 {
		opts.Cols = d.Cols
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = d.MaxPlayers
	}
	if opts.QueueLength <= 0 {
		opts.QueueLength = d.QueueLength
	}
	if opts.Settings == (player.Settings{}) {
		opts.Settings = d.Settings
	}
	if opts.Solo {
		opts.MaxPlayers = 1
	}
	return opts
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(opts Options) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rooms[opts.ID]; exists {
		return nil, errs.Wrap(errs.KindValidation, errs.ErrRoomExists, "room %s", opts.ID)
	}
	room := NewRoom(m.withDefaults(opts), m.deps)
	m.rooms[opts.ID] = room
	logger.Log.Infof("Room %s created (mode %s, solo %v)", room.ID, room.Mode, room.Solo)
	return room, nil
}

// GetOrCreate returns the room named opts.ID, creating it when missing.
// The solo flag and mode of an existing room are kept.
func (m *Manager) GetOrCreate(opts Options) (*Room, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[opts.ID]; exists {
		return room, false
	}
	room := NewRoom(m.withDefaults(opts), m.deps)
	m.rooms[opts.ID] = room
	logger.Log.Infof("Room %s created (mode %s, solo %v)", room.ID, room.Mode, room.Solo)
	return room, true
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	room, exists := m.rooms[id]
	if exists {
		delete(m.rooms, id)
	}
	m.mutex.Unlock()

	// Close may broadcast through the manager
	if exists {
		room.Close()
		logger.Log.Infof("Room %s removed", id)
	}
}

// removeIfEmpty drops the room when it has no members left and is still
// the registered instance for its id.
func (m *Manager) removeIfEmpty(room *Room) bool {
	m.mutex.Lock()
	current, exists := m.rooms[room.ID]
	remove := exists && current == room && room.IsEmpty()
	if remove {
		delete(m.rooms, room.ID)
	}
	m.mutex.Unlock()

	if remove {
		room.Close()
		logger.Log.Infof("Room %s removed (empty)", room.ID)
	}
	return remove
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// JoinRoom puts p into the room named opts.ID, creating it on demand. A
// room created for a join that then fails is dropped again. When the id was
// taken over by another instance while joining, p moves to that instance.
func (m *Manager) JoinRoom(p *player.Player, opts Options) (*Room, bool, error) {
	if p.Room() != nil {
		return nil, false, errs.ErrAlreadyInRoom
	}
	for {
		room, created := m.GetOrCreate(opts)
		if err := room.Join(p); err != nil {
			if created {
				m.removeIfEmpty(room)
			}
			return nil, false, err
		}
		if m.afterJoin != nil {
			m.afterJoin(room)
		}

		// a concurrent last leave may have unregistered the room in between
		m.mutex.Lock()
		current, exists := m.rooms[room.ID]
		if !exists {
			m.rooms[room.ID] = room
			current = room
		}
		m.mutex.Unlock()
		if current == room {
			return room, created, nil
		}

		logger.Log.Infof("Room %s was replaced while %s joined, retrying", room.ID, p.ID)
		if err := room.Leave(p); err != nil {
			return nil, false, err
		}
	}
}

// LeaveRoom removes p from its room and tears the room down when it is
// left empty.
func (m *Manager) LeaveRoom(p *player.Player) (*Room, error) {
	ctx := p.Room()
	if ctx == nil {
		return nil, errs.ErrNotInRoom
	}
	room, exists := m.GetRoom(ctx.GetID())
	if !exists {
		// unregistered room; still detach the participant
		if r, ok := ctx.(*Room); ok {
			room = r
		} else {
			p.LeaveRoom()
			return nil, errs.ErrRoomNotFound
		}
	}
	if err := room.Leave(p); err != nil {
		return nil, err
	}
	m.removeIfEmpty(room)
	return room, nil
}

// FindAvailableRoom 查找一个可用的房间
func (m *Manager) FindAvailableRoom() *Room {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mutex.RUnlock()

	for _, room := range rooms {
		s := room.Summary()
		if !s.Solo && s.Status == state.Waiting && len(s.Players) < s.MaxPlayers {
			return room
		}
	}
	return nil
}

// Summaries lists every room sorted by id.
func (m *Manager) Summaries() []Summary {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mutex.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// CloseAll tears down every room on shutdown.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mutex.Unlock()

	for _, room := range rooms {
		room.Close()
	}
}
