package store

import (
	"context"
	"fmt"
)

// WriteBatch inserts a batch and its instructions in one transaction.
// Uses ON CONFLICT(session, seq) DO NOTHING for idempotency: writing the
// same batch twice returns inserted=false and leaves the first copy.
func (s *Store) WriteBatch(ctx context.Context, b Batch) (inserted bool, err error) {
	if b.Count != len(b.Instructions) {
		return false, fmt.Errorf("write batch: count %d but %d instructions", b.Count, len(b.Instructions))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO batches
		(session, target, seq, count, hash, error, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`,
		b.Session,
		string(b.Target),
		b.Seq,
		b.Count,
		b.Hash,
		b.Error,
		b.EngineVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write batch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write batch: rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}
	batchID, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("write batch: last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instructions (batch_id, position, kind, name, args)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("write batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, in := range b.Instructions {
		args, err := marshalArgs(in.Args)
		if err != nil {
			return false, fmt.Errorf("write batch: instruction %d: %w", in.Position, err)
		}
		if _, err := stmt.ExecContext(ctx, batchID, in.Position, int(in.Kind), in.Name, args); err != nil {
			return false, fmt.Errorf("write batch: instruction %d: %w", in.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write batch: commit: %w", err)
	}
	return true, nil
}
