package player

import "time"

// scheduleGravityLocked replaces the participant's gravity timer with one
// matching the current level. There is never more than one.
func (p *Player) scheduleGravityLocked() {
	p.cancelGravityLocked()
	if !p.playing || p.lost || p.scheduler == nil {
		return
	}
	delay := GravityDelay(p.level, p.settings)
	generation := p.gravityGen
	p.gravityID = p.scheduler.AddTimer(delay, delay, func() { p.tick(generation) })
}

// cancelGravityLocked removes the timer and bumps the generation: a callback
// the scheduler already dequeued may still run, and tick drops it.
func (p *Player) cancelGravityLocked() {
	if p.gravityID != 0 && p.scheduler != nil {
		p.scheduler.RemoveTimer(p.gravityID)
	}
	p.gravityID = 0
	p.gravityGen++
}

// tick is the gravity step: an implicit move down that skips the cooldowns.
// Ticks from a cancelled timer do nothing.
func (p *Player) tick(generation uint64) {
	p.mutex.Lock()
	if generation != p.gravityGen || !p.playing || p.lost || p.active == nil {
		p.mutex.Unlock()
		return
	}
	fx := p.moveDownLocked()
	room := p.room
	p.mutex.Unlock()

	p.dispatch(room, fx)
}

// GravityDelay returns the participant's current step delay.
func (p *Player) GravityDelay() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return GravityDelay(p.level, p.settings)
}
