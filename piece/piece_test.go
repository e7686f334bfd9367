package piece

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SpawnCentered(t *testing.T) {
	tests := []struct {
		kind Kind
		cols int
		x    int
	}{
		{KindI, 10, 3},
		{KindO, 10, 4},
		{KindT, 10, 3},
		{KindT, 11, 4},
	}

	for _, tt := range tests {
		p, err := New(tt.kind, tt.cols)
		require.NoError(t, err)
		assert.Equal(t, Position{X: tt.x, Y: 0}, p.Position, "kind %s cols %d", tt.kind, tt.cols)
	}

	_, err := New("X", 10)
	assert.Error(t, err)
}

func TestClone_IsIndependent(t *testing.T) {
	src, err := New(KindL, 10)
	require.NoError(t, err)

	clone := src.Clone()
	assert.Equal(t, src, clone)
	assert.NotSame(t, src, clone)

	clone.Shape[0][0] = !clone.Shape[0][0]
	clone.Position.X = 7
	clone.Color = "white"

	fresh, _ := New(KindL, 10)
	assert.Equal(t, fresh, src, "mutating the clone must not touch the source")
}

func TestLeadingEmptyRowsAndTrimTop(t *testing.T) {
	p, _ := New(KindI, 10)
	assert.Equal(t, 1, p.LeadingEmptyRows())

	p.TrimTop()
	assert.Equal(t, -1, p.Position.Y)

	o, _ := New(KindO, 10)
	assert.Equal(t, 0, o.LeadingEmptyRows())

	empty := Shape{{false, false}, {false, false}}
	assert.Equal(t, 2, empty.LeadingEmptyRows())
}

func TestRotate(t *testing.T) {
	tShape := mustShape(
		".#.",
		"###",
		"...")

	cw := Rotate(tShape, Clockwise)
	assert.Equal(t, mustShape(
		".#.",
		".##",
		".#."), cw)

	ccw := Rotate(tShape, CounterClockwise)
	assert.Equal(t, mustShape(
		".#.",
		"##.",
		".#."), ccw)

	// four quarter turns come back to the start, and the input is untouched
	s := tShape
	for range 4 {
		s = Rotate(s, Clockwise)
	}
	assert.True(t, s.Equal(tShape))
	assert.Equal(t, mustShape(".#.", "###", "..."), tShape)
}

func TestSwapWith(t *testing.T) {
	a, _ := New(KindI, 10)
	b, _ := New(KindO, 10)
	a.Position = Position{X: 1, Y: 5}

	a.SwapWith(b)

	assert.Equal(t, KindO, a.Kind)
	assert.Equal(t, "yellow", a.Color)
	assert.Equal(t, Position{X: 1, Y: 5}, a.Position)
	assert.Equal(t, KindI, b.Kind)
	assert.Equal(t, 4, b.Size())
}

func TestCells(t *testing.T) {
	p, _ := New(KindO, 10)
	p.Position = Position{X: 2, Y: 3}

	assert.ElementsMatch(t, []Position{{2, 3}, {3, 3}, {2, 4}, {3, 4}}, p.Cells())
}

func TestGenerator_SequenceAndClone(t *testing.T) {
	g := NewGenerator(42)
	seq := g.Generate(50, 10)
	require.Len(t, seq, 50)

	valid := map[Kind]bool{}
	for _, k := range Kinds() {
		valid[k] = true
	}
	for _, p := range seq {
		assert.True(t, valid[p.Kind])
	}

	a := CloneSequence(seq)
	b := CloneSequence(seq)
	for i := range seq {
		assert.Equal(t, seq[i], a[i])
		assert.NotSame(t, a[i], b[i])
	}

	a[0].Shape = Rotate(a[0].Shape, Clockwise)
	a[0].Position.X++
	assert.Equal(t, seq[0], b[0])
}

func TestGenerator_SameSeedSameSequence(t *testing.T) {
	first := NewGenerator(7).Generate(20, 10)
	second := NewGenerator(7).Generate(20, 10)
	assert.Equal(t, first, second)
}

func TestScriptedGenerator_Wraps(t *testing.T) {
	seq := NewScriptedGenerator(KindO, KindI).Generate(5, 10)
	require.Len(t, seq, 5)

	kinds := make([]Kind, 0, len(seq))
	for _, p := range seq {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []Kind{KindO, KindI, KindO, KindI, KindO}, kinds)
	assert.Equal(t, Position{X: 4, Y: 0}, seq[0].Position)
}
