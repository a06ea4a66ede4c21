package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

const batchColumns = `id, session, target, seq, count, hash, error, engine_version`

// ListBatches returns journaled batches without their instructions.
// Results are ordered deterministically: ORDER BY seq ASC, session ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListBatches(ctx context.Context, f BatchFilter) ([]Batch, error) {
	query, args, err := batchQuery(f).compile()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		_, b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// ReadBatch retrieves one batch with its instructions in position order.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadBatch(ctx context.Context, session string, seq int64) (Batch, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+batchColumns+" FROM batches WHERE session = ? AND seq = ?",
		session, seq)
	id, b, err := scanBatch(row)
	if err != nil {
		return Batch{}, err
	}

	b.Instructions, err = s.readInstructions(ctx, id)
	if err != nil {
		return Batch{}, err
	}
	return b, nil
}

func (s *Store) readInstructions(ctx context.Context, batchID int64) ([]Instruction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, kind, name, args
		FROM instructions
		WHERE batch_id = ?
		ORDER BY position ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query instructions: %w", err)
	}
	defer rows.Close()

	instrs := []Instruction{}
	for rows.Next() {
		var (
			in   Instruction
			kind int
			args string
		)
		if err := rows.Scan(&in.Position, &kind, &in.Name, &args); err != nil {
			return nil, fmt.Errorf("scan instruction: %w", err)
		}
		in.Kind = ir.Kind(kind)
		if in.Args, err = unmarshalArgs(args); err != nil {
			return nil, fmt.Errorf("instruction %d: %w", in.Position, err)
		}
		instrs = append(instrs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructions: %w", err)
	}
	return instrs, nil
}

// Sessions returns the distinct session ids in order of their first batch.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session FROM batches
		GROUP BY session
		ORDER BY MIN(id) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq recorded for session, or 0 when the
// session has no batches.
func (s *Store) LastSeq(ctx context.Context, session string) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM batches WHERE session = ?
	`, session).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return last, nil
}

// Stats counts sessions, batches, instructions and failed batches.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(DISTINCT session) FROM batches),
			(SELECT COUNT(*) FROM batches),
			(SELECT COUNT(*) FROM instructions),
			(SELECT COUNT(*) FROM batches WHERE error != '')
	`).Scan(&st.Sessions, &st.Batches, &st.Instructions, &st.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (int64, Batch, error) {
	var (
		id     int64
		b      Batch
		target string
	)
	err := row.Scan(&id, &b.Session, &target, &b.Seq, &b.Count, &b.Hash, &b.Error, &b.EngineVersion)
	if err == sql.ErrNoRows {
		return 0, Batch{}, err
	}
	if err != nil {
		return 0, Batch{}, fmt.Errorf("scan batch: %w", err)
	}
	b.Target = engine.Target(target)
	return id, b, nil
}
