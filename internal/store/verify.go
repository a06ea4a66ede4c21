package store

import (
	"context"
	"fmt"

	"github.com/roach88/drawseq/internal/ir"
)

// Mismatch is a batch whose stored hash no longer matches its stored
// instructions.
type Mismatch struct {
	Session string
	Seq     int64
	Stored  string
	Actual  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("session %s batch %d: stored hash %s, instructions hash to %s",
		m.Session, m.Seq, m.Stored, m.Actual)
}

// Verify recomputes the content hash of every batch in a session from its
// journaled instructions. A clean journal yields no mismatches.
func (s *Store) Verify(ctx context.Context, session string) ([]Mismatch, error) {
	batches, err := s.ListBatches(ctx, BatchFilter{Session: session})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	mismatches := []Mismatch{}
	for _, summary := range batches {
		b, err := s.ReadBatch(ctx, session, summary.Seq)
		if err != nil {
			return nil, fmt.Errorf("verify batch %d: %w", summary.Seq, err)
		}
		actual, err := ir.BatchHash(entries(b.Instructions))
		if err != nil {
			return nil, fmt.Errorf("verify batch %d: %w", summary.Seq, err)
		}
		if actual != b.Hash {
			mismatches = append(mismatches, Mismatch{
				Session: session, Seq: b.Seq, Stored: b.Hash, Actual: actual,
			})
		}
	}
	return mismatches, nil
}
