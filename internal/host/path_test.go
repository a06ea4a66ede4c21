package host

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/drawseq/internal/ir"
)

func TestSweep(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		ccw        bool
		want       float64
	}{
		{"quarter clockwise", 0, math.Pi / 2, false, math.Pi / 2},
		{"quarter counterclockwise", 0, math.Pi / 2, true, -3 * math.Pi / 2},
		{"wraps negative end", 0, -math.Pi / 2, false, 3 * math.Pi / 2},
		{"full turn clockwise", 0, 2 * math.Pi, false, 2 * math.Pi},
		{"more than a turn", 0, 5 * math.Pi, false, 2 * math.Pi},
		{"full turn counterclockwise", 0, -2 * math.Pi, true, -2 * math.Pi},
		{"empty", 1, 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sweep(tt.start, tt.end, tt.ccw), 1e-9)
		})
	}
}

func TestMatrixConversion(t *testing.T) {
	m := ir.Matrix{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	g := toMatrix(m)

	// Both layouts must map points identically.
	x, y := m.Apply(7, 11)
	gx := g.A*7 + g.B*11 + g.C
	gy := g.D*7 + g.E*11 + g.F
	assert.Equal(t, x, gx)
	assert.Equal(t, y, gy)
	assert.Equal(t, m, fromMatrix(g))
}

func TestValidDash(t *testing.T) {
	assert.True(t, validDash(nil))
	assert.True(t, validDash([]float64{1, 0, 2}))
	assert.False(t, validDash([]float64{1, -1}))
	assert.False(t, validDash([]float64{math.NaN()}))
	assert.False(t, validDash([]float64{math.Inf(1)}))

	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, normalizeDash([]float64{1, 2, 3}))
	assert.Equal(t, []float64{4, 5}, normalizeDash([]float64{4, 5}))
}
