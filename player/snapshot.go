package player

import (
	"github.com/wfunc/tetrisserver/board"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/piece"
)

// PreviewSize is how many queued pieces the state snapshot shows.
const PreviewSize = 3

// Stats are the participant's counters for the current match.
type Stats struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
	Level  int    `json:"level"`
	Lines  int    `json:"lines"`
	Lost   bool   `json:"lost"`
}

// Snapshot is the owner's view of their own board.
type Snapshot struct {
	Stats
	Grid        *board.Grid    `json:"grid"`
	ActivePiece *piece.Piece   `json:"activePiece,omitempty"`
	NextPieces  []*piece.Piece `json:"nextPieces"`
}

func (p *Player) Stats() Stats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.statsLocked()
}

func (p *Player) statsLocked() Stats {
	return Stats{Player: p.ID, Score: p.score, Level: p.level, Lines: p.lines, Lost: p.lost}
}

// Snapshot renders the grid with the active piece and its ghost. In the
// invisible mode the falling piece is left out.
func (p *Player) Snapshot() Snapshot {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	snap := Snapshot{Stats: p.statsLocked(), NextPieces: p.previewLocked(PreviewSize)}
	if p.grid == nil {
		snap.Grid = board.New(p.rows, p.cols)
		return snap
	}
	visible := p.settings.Mode != models.ModeInvisible
	snap.Grid = p.grid.Render(p.active, visible, visible)
	if visible && p.active != nil {
		snap.ActivePiece = p.active.Clone()
	}
	return snap
}

func (p *Player) previewLocked(n int) []*piece.Piece {
	if len(p.queue) == 0 {
		return []*piece.Piece{}
	}
	n = min(n, len(p.queue))
	out := make([]*piece.Piece, 0, n)
	for i := range n {
		out = append(out, p.queue[(p.cursor+i)%len(p.queue)].Clone())
	}
	return out
}

// Specter is the opponents' view of this board.
func (p *Player) Specter(rows, cols int) *board.Grid {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return board.Specter(p.grid, rows, cols)
}

// Grid returns a copy of the locked cells, nil before the first match.
func (p *Player) Grid() *board.Grid {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.grid == nil {
		return nil
	}
	return p.grid.Clone()
}

// Queue returns a copy of the participant's piece queue.
func (p *Player) Queue() []*piece.Piece {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return piece.CloneSequence(p.queue)
}

// ActivePiece returns a copy of the falling piece, or nil.
func (p *Player) ActivePiece() *piece.Piece {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.active == nil {
		return nil
	}
	return p.active.Clone()
}
