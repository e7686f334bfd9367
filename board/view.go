package board

import (
	"github.com/wfunc/tetrisserver/piece"
)

// Specter is the color-flattened, read-only copy of g shown to opponents.
// Indestructible cells keep their flag; everything else filled is greyed.
// A nil grid yields an all-empty specter of the given size.
func Specter(g *Grid, rows, cols int) *Grid {
	if g == nil {
		return New(rows, cols)
	}
	out := New(g.Rows, g.Cols)
	for i, row := range g.Cells {
		for j, c := range row {
			if !c.Filled {
				continue
			}
			out.Cells[i][j] = Cell{Filled: true, Color: SpecterColor, Indestructible: c.Indestructible}
		}
	}
	return out
}

// Render returns a copy of g with the ghost projection and the active piece
// drawn in. Either may be skipped; a nil active draws nothing.
func (g *Grid) Render(active *piece.Piece, withPiece, withGhost bool) *Grid {
	out := g.Clone()
	if active == nil {
		return out
	}
	if withGhost {
		ghost := g.DropPosition(active)
		for _, c := range piece.Cells(active.Shape, ghost) {
			if out.InBounds(c.X, c.Y) && !out.Cells[c.Y][c.X].Filled {
				out.Cells[c.Y][c.X] = Cell{Color: active.Color, Ghost: true}
			}
		}
	}
	if withPiece {
		for _, c := range active.Cells() {
			if out.InBounds(c.X, c.Y) {
				out.Cells[c.Y][c.X] = Cell{Filled: true, Color: active.Color}
			}
		}
	}
	return out
}
