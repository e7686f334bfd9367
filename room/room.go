// room/room.go
package room

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/tetrisserver/board"
	"github.com/wfunc/tetrisserver/errs"
	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/network"
	"github.com/wfunc/tetrisserver/piece"
	"github.com/wfunc/tetrisserver/player"
	"github.com/wfunc/tetrisserver/state"
)

// Options fix a room's shape for its whole lifetime.
type Options struct {
	ID          string
	Mode        models.GameMode
	Solo        bool
	Rows        int
	Cols        int
	MaxPlayers  int
	QueueLength int
	Settings    player.Settings
}

// Deps are the collaborators shared by every room of a manager.
type Deps struct {
	Broadcaster Broadcaster
	Scheduler   player.Scheduler
	Generator   *piece.Generator
	Results     ResultSink
	Observer    Observer
}

// Room 是游戏房间的核心结构
type Room struct {
	ID          string
	Mode        models.GameMode
	Solo        bool
	Rows        int
	Cols        int
	MaxPlayers  int
	QueueLength int
	CreatedAt   time.Time

	settings    player.Settings
	lifecycle   *state.Lifecycle
	owner       *player.Player
	players     []*player.Player // join order
	sequence    []*piece.Piece
	started     int // participants at match start
	winner      string
	broadcaster Broadcaster
	scheduler   player.Scheduler
	generator   *piece.Generator
	results     ResultSink
	observer    Observer
	mutex       sync.RWMutex
}

// NewRoom 创建一个新房间
func NewRoom(opts Options, deps Deps) *Room {
	settings := opts.Settings
	settings.Mode = opts.Mode
	if deps.Generator == nil {
		deps.Generator = piece.NewGenerator(0)
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	return &Room{
		ID:          opts.ID,
		Mode:        opts.Mode,
		Solo:        opts.Solo,
		Rows:        opts.Rows,
		Cols:        opts.Cols,
		MaxPlayers:  opts.MaxPlayers,
		QueueLength: opts.QueueLength,
		CreatedAt:   time.Now(),
		settings:    settings,
		lifecycle:   state.NewLifecycle(opts.ID),
		broadcaster: deps.Broadcaster,
		scheduler:   deps.Scheduler,
		generator:   deps.Generator,
		results:     deps.Results,
		observer:    deps.Observer,
	}
}

// --- 实现 player.RoomContext 接口 ---

// GetID 返回房间ID
func (r *Room) GetID() string {
	return r.ID
}

// --- 查询 ---

func (r *Room) Status() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.lifecycle.Status()
}

func (r *Room) Owner() *player.Player {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.owner
}

// Players returns the members in join order.
func (r *Room) Players() []*player.Player {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]*player.Player(nil), r.players...)
}

func (r *Room) PlayerCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.players)
}

func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// Winner is the winner of the last finished match, empty for none.
func (r *Room) Winner() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.winner
}

// Sequence returns a copy of the shared piece sequence of the current match.
func (r *Room) Sequence() []*piece.Piece {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return piece.CloneSequence(r.sequence)
}

func (r *Room) Contains(p *player.Player) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.indexLocked(p) >= 0
}

// RequireOwner fails with a permission error unless p owns the room.
func (r *Room) RequireOwner(p *player.Player) error {
	if r.Owner() != p {
		return errs.ErrNotOwner
	}
	return nil
}

func (r *Room) indexLocked(p *player.Player) int {
	for i, member := range r.players {
		if member == p {
			return i
		}
	}
	return -1
}

func (r *Room) othersLocked(p *player.Player) []*player.Player {
	others := make([]*player.Player, 0, len(r.players))
	for _, member := range r.players {
		if member != p {
			others = append(others, member)
		}
	}
	return others
}

// --- 成员管理 ---

// Join adds p to a waiting room and resets its match state. The first
// member of an ownerless room becomes the owner.
func (r *Room) Join(p *player.Player) error {
	if p.Room() != nil {
		return errs.ErrAlreadyInRoom
	}

	r.mutex.Lock()
	switch {
	case !r.lifecycle.Is(state.Waiting):
		r.mutex.Unlock()
		return errs.ErrMatchStarted
	case r.Solo && r.owner != nil && r.owner != p:
		r.mutex.Unlock()
		return errs.ErrSoloRestricted
	case len(r.players) >= r.MaxPlayers:
		r.mutex.Unlock()
		return errs.ErrRoomFull
	}

	p.JoinRoom(r, r.settings, r.scheduler)
	r.players = append(r.players, p)
	if r.owner == nil {
		r.owner = p
	}
	r.mutex.Unlock()

	logger.Log.Infof("Player %s joined room %s", p.ID, r.ID)
	r.broadcastRoster()
	return nil
}

// Leave removes p, cancels its gravity and hands ownership to the
// earliest-joined remaining member when the owner leaves. A running match
// is re-evaluated; one left without members is aborted.
func (r *Room) Leave(p *player.Player) error {
	r.mutex.Lock()
	idx := r.indexLocked(p)
	if idx < 0 || p.Room() != r {
		r.mutex.Unlock()
		return errs.ErrNotInRoom
	}

	p.LeaveRoom()
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if r.owner == p {
		r.owner = nil
		if len(r.players) > 0 {
			r.owner = r.players[0]
		}
	}

	var notify func()
	if r.lifecycle.Is(state.InProgress) {
		if len(r.players) == 0 {
			r.abortLocked()
		} else if r.shouldEndLocked() {
			notify = r.finishLocked()
		}
	}
	r.mutex.Unlock()

	logger.Log.Infof("Player %s left room %s", p.ID, r.ID)
	if notify != nil {
		notify()
	}
	r.broadcastRoster()
	return nil
}

// --- 生命周期 ---

// Start deals the shared sequence to every member and starts gravity.
func (r *Room) Start() error {
	r.mutex.Lock()
	if !r.lifecycle.Is(state.Waiting) {
		r.mutex.Unlock()
		return errs.ErrMatchStarted
	}
	if len(r.players) == 0 {
		r.mutex.Unlock()
		return errs.ErrNoPlayers
	}

	r.sequence = r.generator.Generate(r.QueueLength, r.Cols)
	for _, p := range r.players {
		p.StartMatch(piece.CloneSequence(r.sequence), r.Rows, r.Cols)
	}
	r.started = len(r.players)
	r.winner = ""
	if err := r.lifecycle.Transition(state.InProgress); err != nil {
		r.mutex.Unlock()
		return err
	}

	payload := network.GameStarted{
		Room:   r.ID,
		Mode:   r.Mode,
		Roster: r.rosterLocked(),
		Queues: make(map[string][]*piece.Piece, len(r.players)),
		Grids:  make(map[string]*board.Grid, len(r.players)),
	}
	for _, p := range r.players {
		payload.Queues[p.ID] = p.Queue()
		payload.Grids[p.ID] = p.Grid()
	}
	members := append([]*player.Player(nil), r.players...)
	r.mutex.Unlock()

	logger.Log.Infof("Room %s started a %s match with %d players", r.ID, r.Mode, len(members))
	r.observer.MatchStarted(r.Mode)
	r.Broadcast(network.EventGameStarted, payload)
	for _, p := range members {
		r.PublishState(p)
	}
	return nil
}

// Stop ends the running match: timers are cancelled, the winner is
// computed and every member receives game-over.
func (r *Room) Stop() error {
	r.mutex.Lock()
	if !r.lifecycle.Is(state.InProgress) {
		r.mutex.Unlock()
		return errs.ErrNotInProgress
	}
	notify := r.finishLocked()
	r.mutex.Unlock()

	notify()
	return nil
}

// Restart resets every member of a finished room and starts a new match.
func (r *Room) Restart() error {
	r.mutex.Lock()
	if !r.lifecycle.Is(state.Finished) {
		r.mutex.Unlock()
		return errs.ErrNotFinished
	}
	for _, p := range r.players {
		p.Reset()
	}
	if err := r.lifecycle.Transition(state.Waiting); err != nil {
		r.mutex.Unlock()
		return err
	}
	r.mutex.Unlock()

	return r.Start()
}

// Close tears the room down for the registry: a running match is aborted
// and every gravity timer is cancelled. Nobody is notified.
func (r *Room) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.lifecycle.Is(state.InProgress) {
		r.abortLocked()
		return
	}
	for _, p := range r.players {
		p.StopGravity()
	}
}

func (r *Room) abortLocked() {
	for _, p := range r.players {
		p.StopGravity()
	}
	if err := r.lifecycle.Transition(state.Aborted); err != nil {
		logger.Log.Errorf("Room %s: abort: %v", r.ID, err)
	}
	logger.Log.Infof("Room %s aborted", r.ID)
}

// ShouldEndGame evaluates the end condition of the current match.
func (r *Room) ShouldEndGame() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.shouldEndLocked()
}

func (r *Room) shouldEndLocked() bool {
	if r.lifecycle.Is(state.Finished) || len(r.players) == 0 {
		return true
	}
	alive := r.aliveLocked()
	if r.Solo {
		return len(alive) == 0
	}
	if r.started >= 2 && len(alive) == 1 {
		return true
	}
	// everyone lost: single-player rooms and ties
	return len(alive) == 0
}

func (r *Room) aliveLocked() []*player.Player {
	var alive []*player.Player
	for _, p := range r.players {
		if !p.HasLost() {
			alive = append(alive, p)
		}
	}
	return alive
}

// finishLocked moves to Finished and returns the notifications to send once
// the room lock is released.
func (r *Room) finishLocked() func() {
	for _, p := range r.players {
		p.StopGravity()
	}

	r.winner = ""
	if alive := r.aliveLocked(); !r.Solo && r.started >= 2 && len(alive) == 1 {
		r.winner = alive[0].ID
	}
	if err := r.lifecycle.Transition(state.Finished); err != nil {
		logger.Log.Errorf("Room %s: finish: %v", r.ID, err)
	}

	over := network.GameOver{
		Room:   r.ID,
		Winner: r.winner,
		Roster: r.rosterLocked(),
		Scores: make(map[string]int, len(r.players)),
	}
	for _, entry := range over.Roster {
		over.Scores[entry.Player] = entry.Score
	}
	results := r.resultsLocked()

	logger.Log.Infof("Room %s finished, winner: %q", r.ID, r.winner)
	return func() {
		r.Broadcast(network.EventGameOver, over)
		if r.results != nil && len(results) > 0 {
			r.results.RecordResults(results)
		}
	}
}

func (r *Room) resultsLocked() map[string]models.MatchResult {
	now := time.Now()
	results := make(map[string]models.MatchResult, len(r.players))
	for _, p := range r.players {
		stats := p.Stats()
		outcome := models.OutcomeLose
		switch {
		case r.winner == p.ID:
			outcome = models.OutcomeWin
		case r.winner == "" && !r.Solo && r.started >= 2:
			outcome = models.OutcomeDraw
		}
		results[p.ID] = models.MatchResult{
			RoomID:     r.ID,
			Mode:       r.Mode,
			Solo:       r.Solo,
			Players:    r.started,
			Outcome:    outcome,
			Score:      stats.Score,
			Lines:      stats.Lines,
			Level:      stats.Level,
			FinishedAt: now,
		}
	}
	return results
}

// --- 游戏动作 ---

// HandlePieceMove routes one move-piece command to p.
func (r *Room) HandlePieceMove(p *player.Player, dir player.Direction) error {
	r.mutex.RLock()
	member := r.indexLocked(p) >= 0
	inProgress := r.lifecycle.Is(state.InProgress)
	r.mutex.RUnlock()

	if !member {
		return errs.ErrNotInRoom
	}
	if !inProgress {
		return errs.ErrNotInProgress
	}
	return p.Move(dir)
}

// HandlePenalties adds lines indestructible rows to every member but the
// author. Solo rooms ignore penalties.
func (r *Room) HandlePenalties(author *player.Player, lines int) error {
	if r.Solo {
		return nil
	}

	r.mutex.RLock()
	if !r.lifecycle.Is(state.InProgress) {
		r.mutex.RUnlock()
		return errs.ErrNotInProgress
	}
	targets := r.othersLocked(author)
	r.mutex.RUnlock()

	var lost []*player.Player
	for _, target := range targets {
		if target.AddPenalty(lines) {
			lost = append(lost, target)
		}
	}
	r.observer.PenaltyLines(lines * len(targets))

	for _, target := range targets {
		r.PublishState(target)
	}
	for _, target := range lost {
		r.OnPlayerLost(target)
	}
	return nil
}

// OnLinesCleared announces a clear to the whole room.
func (r *Room) OnLinesCleared(p *player.Player, ev player.LinesCleared) {
	r.observer.LinesCleared(ev.Count)
	r.Broadcast(network.EventLinesCleared, ev)
}

// OnPlayerLost announces the loss and ends the match when it decides it.
func (r *Room) OnPlayerLost(p *player.Player) {
	logger.Log.Infof("Player %s lost in room %s", p.ID, r.ID)
	r.Broadcast(network.EventGameLost, network.GameLost{
		Player:  p.ID,
		Specter: p.Specter(r.Rows, r.Cols),
	})

	r.mutex.Lock()
	var notify func()
	if r.lifecycle.Is(state.InProgress) && r.shouldEndLocked() {
		notify = r.finishLocked()
	}
	r.mutex.Unlock()

	if notify != nil {
		notify()
	}
}

// PublishState sends p its own state and pushes its specter to the others.
func (r *Room) PublishState(p *player.Player) {
	r.mutex.RLock()
	others := r.othersLocked(p)
	r.mutex.RUnlock()

	snap := p.Snapshot()
	opponents := make([]network.Opponent, 0, len(others))
	for _, o := range others {
		stats := o.Stats()
		opponents = append(opponents, network.Opponent{
			Player:  o.ID,
			Score:   stats.Score,
			Lost:    stats.Lost,
			Specter: o.Specter(r.Rows, r.Cols),
		})
	}
	r.sendTo(p, network.EventGameState, network.GameState{Snapshot: snap, Opponents: opponents})

	if len(others) == 0 {
		return
	}
	update := network.SpecterUpdate{
		Player:  p.ID,
		Score:   snap.Score,
		Lost:    snap.Lost,
		Specter: p.Specter(r.Rows, r.Cols),
	}
	for _, o := range others {
		r.sendTo(o, network.EventSpecter, update)
	}
}

// --- 广播 ---

// Broadcast 向房间内所有玩家广播消息
func (r *Room) Broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Room %s: marshal %s: %v", r.ID, event, err)
		return
	}

	if r.broadcaster != nil {
		if err := r.broadcaster.BroadcastToRoom(r.ID, event, data); err != nil {
			logger.Log.Debugf("Room %s: broadcast %s: %v", r.ID, event, err)
		}
		return
	}
	for _, p := range r.Players() {
		if err := p.Send(event, data); err != nil {
			logger.Log.Debugf("Room %s: send %s to %s: %v", r.ID, event, p.ID, err)
		}
	}
}

func (r *Room) sendTo(p *player.Player, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Room %s: marshal %s: %v", r.ID, event, err)
		return
	}
	if err := p.Send(event, data); err != nil {
		logger.Log.Debugf("Room %s: send %s to %s: %v", r.ID, event, p.ID, err)
	}
}

func (r *Room) broadcastRoster() {
	r.mutex.RLock()
	update := network.RoomUpdate{
		Room:   r.ID,
		Status: r.lifecycle.Status(),
		Roster: r.rosterLocked(),
	}
	r.mutex.RUnlock()

	r.Broadcast(network.EventRoomUpdate, update)
}

func (r *Room) rosterLocked() []network.RosterEntry {
	roster := make([]network.RosterEntry, 0, len(r.players))
	for _, p := range r.players {
		stats := p.Stats()
		roster = append(roster, network.RosterEntry{
			Player: p.ID,
			Owner:  p == r.owner,
			Lost:   stats.Lost,
			Score:  stats.Score,
		})
	}
	return roster
}

// Info describes the room to a player that just joined it.
func (r *Room) Info() network.RoomInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	info := network.RoomInfo{Room: r.ID, Mode: r.Mode, Solo: r.Solo}
	if r.owner != nil {
		info.Owner = r.owner.ID
	}
	return info
}

// Summary is the admin view of a room.
type Summary struct {
	ID         string          `json:"id"`
	Mode       models.GameMode `json:"mode"`
	Solo       bool            `json:"solo"`
	Status     string          `json:"status"`
	Owner      string          `json:"owner,omitempty"`
	Players    []string        `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	Winner     string          `json:"winner,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (r *Room) Summary() Summary {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s := Summary{
		ID:         r.ID,
		Mode:       r.Mode,
		Solo:       r.Solo,
		Status:     r.lifecycle.Status(),
		Players:    make([]string, 0, len(r.players)),
		MaxPlayers: r.MaxPlayers,
		Winner:     r.winner,
		CreatedAt:  r.CreatedAt,
	}
	if r.owner != nil {
		s.Owner = r.owner.ID
	}
	for _, p := range r.players {
		s.Players = append(s.Players, p.ID)
	}
	return s
}
