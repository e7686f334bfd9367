package player

import (
	"sync"
	"time"
)

type fakeTimer struct {
	delay    time.Duration
	callback func()
}

// fakeScheduler keeps timers in memory; tests fire them by hand.
type fakeScheduler struct {
	mutex  sync.Mutex
	nextID int64
	timers map[int64]fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: make(map[int64]fakeTimer)}
}

func (s *fakeScheduler) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextID++
	s.timers[s.nextID] = fakeTimer{delay: delay, callback: callback}
	return s.nextID
}

func (s *fakeScheduler) RemoveTimer(timerId int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.timers, timerId)
}

func (s *fakeScheduler) count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.timers)
}

func (s *fakeScheduler) delays() []time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var out []time.Duration
	for _, t := range s.timers {
		out = append(out, t.delay)
	}
	return out
}

// live returns the callback of the only live timer.
func (s *fakeScheduler) live() func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, t := range s.timers {
		return t.callback
	}
	return nil
}

// fire runs every live timer once.
func (s *fakeScheduler) fire() {
	s.mutex.Lock()
	callbacks := make([]func(), 0, len(s.timers))
	for _, t := range s.timers {
		callbacks = append(callbacks, t.callback)
	}
	s.mutex.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

type fakeRoom struct {
	mutex     sync.Mutex
	cleared   []LinesCleared
	penalties []int
	lost      []string
	published int
}

func (r *fakeRoom) GetID() string { return "fake-room" }

func (r *fakeRoom) HandlePenalties(author *Player, lines int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.penalties = append(r.penalties, lines)
	return nil
}

func (r *fakeRoom) OnLinesCleared(p *Player, ev LinesCleared) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cleared = append(r.cleared, ev)
}

func (r *fakeRoom) OnPlayerLost(p *Player) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.lost = append(r.lost, p.ID)
}

func (r *fakeRoom) PublishState(p *Player) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.published++
}

func (r *fakeRoom) publishCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.published
}
