package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// createTestStore opens a journal in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBatch builds a batch of fill_rect instructions with a correct
// hash.
func createTestBatch(session string, seq int64, target string, n int) Batch {
	instrs := make([]Instruction, n)
	for i := range instrs {
		op := ir.FillRect{X: float64(i), Y: 0, W: 1, H: 1}
		instrs[i] = Instruction{Position: i, Kind: op.Kind(), Name: op.Kind().String(), Args: ir.Describe(op)}
	}
	return Batch{
		Session:       session,
		Target:        engine.Target(target),
		Seq:           seq,
		Count:         n,
		Hash:          ir.MustBatchHash(entries(instrs)),
		EngineVersion: ir.EngineVersion,
		Instructions:  instrs,
	}
}
