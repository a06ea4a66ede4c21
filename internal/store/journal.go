package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// Journal is an engine.Dispatcher that records every batch it forwards.
//
// The batch is described before it is forwarded, so the journal holds the
// instructions exactly as the Sequence emitted them even when the wrapped
// dispatcher fails. Batches are numbered per session by the journal's own
// clock, which continues after the last batch already recorded for the
// session.
type Journal struct {
	store   *Store
	next    engine.Dispatcher
	session string
	clock   engine.SeqSource
	logger  *slog.Logger
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithSession sets the session id. Defaults to a fresh UUIDv7.
func WithSession(id string) JournalOption {
	return func(j *Journal) {
		j.session = id
	}
}

// WithJournalClock sets the source of batch numbers.
func WithJournalClock(c engine.SeqSource) JournalOption {
	return func(j *Journal) {
		j.clock = c
	}
}

// WithJournalLogger sets the logger for journal write failures.
func WithJournalLogger(l *slog.Logger) JournalOption {
	return func(j *Journal) {
		j.logger = l
	}
}

// NewJournal wraps next so that every batch is also written to s. Unless
// WithJournalClock is given, numbering resumes after the session's highest
// recorded seq, so a reused session id appends instead of colliding.
func NewJournal(ctx context.Context, s *Store, next engine.Dispatcher, opts ...JournalOption) (*Journal, error) {
	j := &Journal{
		store:  s,
		next:   next,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.session == "" {
		j.session = uuid.Must(uuid.NewV7()).String()
	}
	if j.clock == nil {
		last, err := s.LastSeq(ctx, j.session)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		j.clock = engine.NewClockAt(last)
	}
	return j, nil
}

// Session returns the session id batches are recorded under.
func (j *Journal) Session() string {
	return j.session
}

// Dispatch implements engine.Dispatcher. A failure to write the journal is
// joined with the wrapped dispatcher's result.
func (j *Journal) Dispatch(target engine.Target, head *engine.Node) error {
	b, descErr := j.describe(target, head)

	err := j.next.Dispatch(target, head)
	if descErr != nil {
		j.logger.Warn("batch not journaled", "target", target, "error", descErr)
		return errors.Join(err, descErr)
	}
	if err != nil {
		b.Error = err.Error()
	}

	// Dispatch carries no context; journal writes are short local
	// transactions.
	inserted, werr := j.store.WriteBatch(context.Background(), b)
	if werr == nil && !inserted {
		werr = fmt.Errorf("%w: session %s seq %d", ErrBatchExists, b.Session, b.Seq)
	}
	if werr != nil {
		j.logger.Warn("batch not journaled", "target", target, "seq", b.Seq, "error", werr)
		return errors.Join(err, fmt.Errorf("journal: %w", werr))
	}
	return err
}

// LoadImage forwards to the wrapped dispatcher when it can load images and
// returns engine.ErrNoImageLoader otherwise. Image loads are not batches and
// are not journaled.
func (j *Journal) LoadImage(target engine.Target, url string, id int32) error {
	loader, ok := j.next.(engine.ImageLoader)
	if !ok {
		return fmt.Errorf("journal: %T: %w", j.next, engine.ErrNoImageLoader)
	}
	return loader.LoadImage(target, url, id)
}

func (j *Journal) describe(target engine.Target, head *engine.Node) (Batch, error) {
	ops := engine.Ops(head)
	entries := ir.BatchEntries(ops)
	hash, err := ir.BatchHash(entries)
	if err != nil {
		return Batch{}, fmt.Errorf("journal: %w", err)
	}

	instrs := make([]Instruction, len(ops))
	for i, op := range ops {
		instrs[i] = Instruction{
			Position: i,
			Kind:     op.Kind(),
			Name:     op.Kind().String(),
			Args:     ir.Describe(op),
		}
	}
	return Batch{
		Session:       j.session,
		Target:        target,
		Seq:           j.clock.Next(),
		Count:         len(ops),
		Hash:          hash,
		EngineVersion: ir.EngineVersion,
		Instructions:  instrs,
	}, nil
}

var _ engine.Dispatcher = (*Journal)(nil)
