package room

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/player"
)

type sentMessage struct {
	event string
	data  []byte
}

// recordingConn implements player.Conn and keeps every message.
type recordingConn struct {
	id    string
	mutex sync.Mutex
	sent  []sentMessage
}

func (c *recordingConn) GetID() string { return c.id }

func (c *recordingConn) Send(event string, data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sent = append(c.sent, sentMessage{event: event, data: data})
	return nil
}

func (c *recordingConn) count(event string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := 0
	for _, m := range c.sent {
		if m.event == event {
			n++
		}
	}
	return n
}

func (c *recordingConn) total() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.sent)
}

// last decodes the newest message of event into v; false if none.
func (c *recordingConn) last(event string, v any) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].event == event {
			return json.Unmarshal(c.sent[i].data, v) == nil
		}
	}
	return false
}

// manualScheduler never fires on its own.
type manualScheduler struct {
	mutex  sync.Mutex
	nextID int64
	timers map[int64]func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{timers: make(map[int64]func())}
}

func (s *manualScheduler) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextID++
	s.timers[s.nextID] = callback
	return s.nextID
}

func (s *manualScheduler) RemoveTimer(timerId int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.timers, timerId)
}

func (s *manualScheduler) count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.timers)
}

type resultSink struct {
	mutex   sync.Mutex
	batches []map[string]models.MatchResult
}

func (s *resultSink) RecordResults(results map[string]models.MatchResult) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.batches = append(s.batches, results)
}

func (s *resultSink) all() []map[string]models.MatchResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]map[string]models.MatchResult(nil), s.batches...)
}

type countingObserver struct {
	mutex   sync.Mutex
	matches int
	lines   int
	penalty int
}

func (o *countingObserver) MatchStarted(models.GameMode) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.matches++
}

func (o *countingObserver) LinesCleared(n int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.lines += n
}

func (o *countingObserver) PenaltyLines(n int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.penalty += n
}

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mutex  sync.Mutex
	events []string
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, event string, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, event)
	return nil
}

func newTestPlayer(id string) (*player.Player, *recordingConn) {
	conn := &recordingConn{id: id}
	return player.New(id, conn), conn
}
