package piece

// Rotation direction.
type Rotation int

const (
	Clockwise Rotation = iota
	CounterClockwise
)

// Rotate returns a new matrix turned 90 degrees. The input is not modified.
func Rotate(shape Shape, dir Rotation) Shape {
	size := len(shape)
	rotated := make(Shape, size)
	for i := range rotated {
		rotated[i] = make([]bool, size)
	}

	for i := range size {
		for j := range size {
			if dir == Clockwise {
				rotated[j][size-1-i] = shape[i][j]
			} else {
				rotated[size-1-j][i] = shape[i][j]
			}
		}
	}
	return rotated
}

// Rotated returns the piece's shape turned in dir without touching the piece.
func (p *Piece) Rotated(dir Rotation) Shape {
	return Rotate(p.Shape, dir)
}
