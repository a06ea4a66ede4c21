package testutil

import "github.com/roach88/drawseq/internal/engine"

// StaticTargetGenerator hands out the same target every time. Scenarios
// that pin a target in YAML use it so golden traces stay byte-identical.
//
// Unlike engine.FixedGenerator, which walks a list and panics when it runs
// out, this generator never runs out.
//
// Thread-safety: stateless, safe for concurrent use.
type StaticTargetGenerator struct {
	target engine.Target
}

// DefaultTestTarget is used when no target is pinned.
const DefaultTestTarget engine.Target = "test-canvas"

// NewStaticTargetGenerator returns a generator for target. An empty target
// falls back to DefaultTestTarget.
func NewStaticTargetGenerator(target engine.Target) *StaticTargetGenerator {
	if target == "" {
		target = DefaultTestTarget
	}
	return &StaticTargetGenerator{target: target}
}

func (g *StaticTargetGenerator) Generate() engine.Target {
	return g.target
}
