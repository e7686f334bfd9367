// Package board holds a participant's grid: collision tests, locking,
// line clearing, penalty rows and the read-only views sent to clients.
package board

import (
	"github.com/wfunc/tetrisserver/piece"
)

// Colors used by generated cells.
const (
	PenaltyColor = "grey"
	SpecterColor = "specter"
)

// Cell 网格中的一个格子
type Cell struct {
	Filled         bool   `json:"filled"`
	Color          string `json:"color,omitempty"`
	Indestructible bool   `json:"indestructible,omitempty"`
	Ghost          bool   `json:"ghost,omitempty"` // 仅用于显示
}

// Grid is indexed Cells[row][col]; row 0 is the top.
type Grid struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

// New returns an empty rows x cols grid.
func New(rows, cols int) *Grid {
	g := &Grid{Rows: rows, Cols: cols, Cells: make([][]Cell, rows)}
	for i := range g.Cells {
		g.Cells[i] = make([]Cell, cols)
	}
	return g
}

// Clone deep-copies the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Cells: make([][]Cell, len(g.Cells))}
	for i, row := range g.Cells {
		out.Cells[i] = append([]Cell(nil), row...)
	}
	return out
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Cols && y >= 0 && y < g.Rows
}

// IsValidPosition reports whether every occupied cell of shape placed at pos
// lies inside the grid on a cell that is not filled.
func (g *Grid) IsValidPosition(shape piece.Shape, pos piece.Position) bool {
	for _, c := range piece.Cells(shape, pos) {
		if !g.InBounds(c.X, c.Y) || g.Cells[c.Y][c.X].Filled {
			return false
		}
	}
	return true
}

// IsValidMove tests p at pos, optionally with its shape turned clockwise.
func (g *Grid) IsValidMove(p *piece.Piece, pos piece.Position, rotate bool) bool {
	shape := p.Shape
	if rotate {
		shape = p.Rotated(piece.Clockwise)
	}
	return g.IsValidPosition(shape, pos)
}

// Merge locks p into the grid. Cells outside the grid and indestructible
// cells are left untouched.
func (g *Grid) Merge(p *piece.Piece) {
	for _, c := range p.Cells() {
		if !g.InBounds(c.X, c.Y) || g.Cells[c.Y][c.X].Indestructible {
			continue
		}
		g.Cells[c.Y][c.X] = Cell{Filled: true, Color: p.Color}
	}
}

// DropPosition returns the lowest valid position straight below p. It returns
// p's own position when p cannot move down.
func (g *Grid) DropPosition(p *piece.Piece) piece.Position {
	pos := p.Position
	for {
		next := piece.Position{X: pos.X, Y: pos.Y + 1}
		if !g.IsValidPosition(p.Shape, next) {
			return pos
		}
		pos = next
	}
}

// Height is the number of rows from the topmost filled cell to the bottom.
func (g *Grid) Height() int {
	for i, row := range g.Cells {
		for _, c := range row {
			if c.Filled {
				return g.Rows - i
			}
		}
	}
	return 0
}

func emptyRow(cols int) []Cell {
	return make([]Cell, cols)
}

func isIndestructible(row []Cell) bool {
	for _, c := range row {
		if c.Indestructible {
			return true
		}
	}
	return false
}

func isEmpty(row []Cell) bool {
	for _, c := range row {
		if c.Filled {
			return false
		}
	}
	return true
}
