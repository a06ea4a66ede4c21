package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/drawseq/internal/engine"
)

func TestStaticTargetGenerator(t *testing.T) {
	gen := NewStaticTargetGenerator("canvas-a")
	assert.Equal(t, engine.Target("canvas-a"), gen.Generate())
	assert.Equal(t, engine.Target("canvas-a"), gen.Generate())
}

func TestStaticTargetGenerator_EmptyUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultTestTarget, NewStaticTargetGenerator("").Generate())
}
