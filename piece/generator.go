package piece

import (
	"math/rand"
	"sync"
	"time"
)

// Generator draws the shared piece sequence of a room.
type Generator struct {
	mutex  sync.Mutex
	rnd    *rand.Rand
	script []Kind
}

// NewGenerator 创建生成器；seed 为 0 时使用当前时间
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// NewScriptedGenerator deals kinds in order, wrapping around. Used to replay
// a known sequence.
func NewScriptedGenerator(kinds ...Kind) *Generator {
	if len(kinds) == 0 {
		return NewGenerator(0)
	}
	return &Generator{script: append([]Kind(nil), kinds...)}
}

// Generate draws n pieces by uniform random template selection, or from the
// script when one is set. Kinds may repeat. Every piece carries the default spawn position for cols columns.
func (g *Generator) Generate(n, cols int) []*Piece {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	sequence := make([]*Piece, 0, n)
	for i := range n {
		var t template
		if len(g.script) > 0 {
			t = templateOf(g.script[i%len(g.script)])
		} else {
			t = templates[g.rnd.Intn(len(templates))]
		}
		sequence = append(sequence, fromTemplate(t, cols))
	}
	return sequence
}

// CloneSequence deep-copies every piece so each participant can mutate its
// own queue without touching the shared templates.
func CloneSequence(sequence []*Piece) []*Piece {
	out := make([]*Piece, len(sequence))
	for i, p := range sequence {
		out[i] = p.Clone()
	}
	return out
}

func templateOf(kind Kind) template {
	for _, t := range templates {
		if t.kind == kind {
			return t
		}
	}
	panic("piece: unknown kind " + string(kind))
}
