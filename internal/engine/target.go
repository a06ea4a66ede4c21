package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Target is an opaque handle naming the output surface a Sequence draws
// to. Hosts issue targets; the engine only passes them through to the
// dispatcher. The zero value is not a valid target.
type Target string

// TargetGenerator issues new target handles.
type TargetGenerator interface {
	Generate() Target
}

// UUIDv7Generator issues time-sortable UUIDv7 target handles.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDv7Generator) Generate() Target {
	return Target(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined targets in order, for tests and
// golden traces.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu      sync.Mutex
	targets []Target
	idx     int
}

// NewFixedGenerator creates a generator that returns targets in order.
//
//	gen := NewFixedGenerator("canvas-1", "canvas-2")
//	gen.Generate() // "canvas-1"
//	gen.Generate() // "canvas-2"
//	gen.Generate() // panic: all targets exhausted
func NewFixedGenerator(targets ...Target) *FixedGenerator {
	return &FixedGenerator{targets: targets}
}

// Generate returns the next predetermined target. Panics once all targets
// have been handed out, which catches tests that attach more surfaces than
// they declared.
func (g *FixedGenerator) Generate() Target {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.targets) {
		panic(fmt.Sprintf("FixedGenerator: all %d targets exhausted", len(g.targets)))
	}
	t := g.targets[g.idx]
	g.idx++
	return t
}
