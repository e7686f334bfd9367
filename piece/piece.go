// Package piece defines the falling pieces, their rotation and the shared
// sequence every participant of a room draws from.
package piece

import (
	"fmt"
	"strings"
)

// Kind 方块类型
type Kind string

const (
	KindI Kind = "I"
	KindO Kind = "O"
	KindT Kind = "T"
	KindS Kind = "S"
	KindZ Kind = "Z"
	KindJ Kind = "J"
	KindL Kind = "L"
)

// Shape is a square occupancy matrix indexed [row][col].
type Shape [][]bool

// Position is the top-left corner of the shape matrix in grid cells.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Piece 一个方块实例（形状 + 颜色 + 位置）
type Piece struct {
	Kind     Kind     `json:"kind"`
	Shape    Shape    `json:"shape"`
	Color    string   `json:"color"`
	Position Position `json:"position"`
}

type template struct {
	kind  Kind
	color string
	shape Shape
}

// canonical rotation states
var templates = []template{
	{KindI, "cyan", mustShape(
		"....",
		"####",
		"....",
		"....")},
	{KindO, "yellow", mustShape(
		"##",
		"##")},
	{KindT, "purple", mustShape(
		".#.",
		"###",
		"...")},
	{KindS, "green", mustShape(
		".##",
		"##.",
		"...")},
	{KindZ, "red", mustShape(
		"##.",
		".##",
		"...")},
	{KindJ, "blue", mustShape(
		"#..",
		"###",
		"...")},
	{KindL, "orange", mustShape(
		"..#",
		"###",
		"...")},
}

func mustShape(rows ...string) Shape {
	shape := make(Shape, len(rows))
	for i, row := range rows {
		if len(row) != len(rows) {
			panic(fmt.Sprintf("piece: shape row %q is not square", row))
		}
		shape[i] = make([]bool, len(row))
		for j, c := range row {
			shape[i][j] = c == '#'
		}
	}
	return shape
}

// Kinds lists every template kind in canonical order.
func Kinds() []Kind {
	kinds := make([]Kind, len(templates))
	for i, t := range templates {
		kinds[i] = t.kind
	}
	return kinds
}

// New builds a piece of the given kind at its default spawn position for a
// grid with cols columns: horizontally centered, y = 0.
func New(kind Kind, cols int) (*Piece, error) {
	for _, t := range templates {
		if t.kind == kind {
			return fromTemplate(t, cols), nil
		}
	}
	return nil, fmt.Errorf("unknown piece kind %q", kind)
}

func fromTemplate(t template, cols int) *Piece {
	size := len(t.shape)
	return &Piece{
		Kind:     t.kind,
		Shape:    t.shape.Clone(),
		Color:    t.color,
		Position: Position{X: (cols - size) / 2, Y: 0},
	}
}

// Size is the side length of the shape matrix.
func (p *Piece) Size() int {
	return len(p.Shape)
}

// Clone returns an independent deep copy.
func (p *Piece) Clone() *Piece {
	return &Piece{
		Kind:     p.Kind,
		Shape:    p.Shape.Clone(),
		Color:    p.Color,
		Position: p.Position,
	}
}

// LeadingEmptyRows counts the all-empty rows at the top of the shape.
func (p *Piece) LeadingEmptyRows() int {
	return p.Shape.LeadingEmptyRows()
}

// TrimTop lifts the piece so its first occupied row sits at Y = 0.
func (p *Piece) TrimTop() {
	p.Position.Y = -p.LeadingEmptyRows()
}

// SwapWith exchanges kind, shape and color with other. Positions stay.
func (p *Piece) SwapWith(other *Piece) {
	p.Kind, other.Kind = other.Kind, p.Kind
	p.Shape, other.Shape = other.Shape, p.Shape
	p.Color, other.Color = other.Color, p.Color
}

// Cells returns the absolute grid coordinates of the occupied cells of shape
// placed at pos.
func Cells(shape Shape, pos Position) []Position {
	var cells []Position
	for i, row := range shape {
		for j, filled := range row {
			if filled {
				cells = append(cells, Position{X: pos.X + j, Y: pos.Y + i})
			}
		}
	}
	return cells
}

// Cells returns the absolute coordinates of the piece's occupied cells.
func (p *Piece) Cells() []Position {
	return Cells(p.Shape, p.Position)
}

func (p *Piece) String() string {
	return fmt.Sprintf("%s@(%d,%d)", p.Kind, p.Position.X, p.Position.Y)
}

// Clone deep-copies the matrix.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for i, row := range s {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// Equal reports whether both matrices have the same occupancy.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if len(s[i]) != len(other[i]) {
			return false
		}
		for j := range s[i] {
			if s[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

func (s Shape) LeadingEmptyRows() int {
	n := 0
	for _, row := range s {
		for _, filled := range row {
			if filled {
				return n
			}
		}
		n++
	}
	return n
}

func (s Shape) String() string {
	var b strings.Builder
	for _, row := range s {
		for _, filled := range row {
			if filled {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
