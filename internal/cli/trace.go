package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
	"github.com/roach88/drawseq/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Target   string
	Limit    int
	FromSeq  int64
	Failed   bool
	Seq      int64 // optional - show one batch with its instructions
}

// TraceBatch is one journaled batch in trace output.
type TraceBatch struct {
	Session       string             `json:"session"`
	Target        string             `json:"target"`
	Seq           int64              `json:"seq"`
	Count         int                `json:"count"`
	Hash          string             `json:"hash"`
	Error         string             `json:"error,omitempty"`
	EngineVersion string             `json:"engine_version"`
	Instructions  []TraceInstruction `json:"instructions,omitempty"`
}

// TraceInstruction is one journaled instruction in trace output.
type TraceInstruction struct {
	Position int         `json:"position"`
	Kind     string      `json:"kind"`
	Name     string      `json:"name,omitempty"`
	Args     ir.IRObject `json:"args"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Stats   store.Stats  `json:"stats"`
	Batches []TraceBatch `json:"batches"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect journaled batches",
		Long: `List the batches recorded in a SQLite journal.

Batches are listed in sequence order with their target, instruction count,
content hash and dispatch error, if any. With --session and --seq, the one
batch is shown together with its instructions.

Examples:
  drawseq trace --db ./journal.db
  drawseq trace --db ./journal.db --session demo --target canvas-1
  drawseq trace --db ./journal.db --failed
  drawseq trace --db ./journal.db --session demo --seq 2 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "filter to one session")
	cmd.Flags().StringVar(&opts.Target, "target", "", "filter to one target")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of batches (0 = all)")
	cmd.Flags().Int64Var(&opts.FromSeq, "from-seq", 0, "only batches with seq >= this")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only batches the host rejected")
	cmd.Flags().Int64Var(&opts.Seq, "seq", 0, "show one batch with its instructions (requires --session)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	if opts.Seq != 0 && opts.Session == "" {
		return NewExitError(ExitCommandError, "--seq requires --session")
	}

	st, err := openJournal(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeJournal, err.Error(), nil)
		return err
	}
	defer st.Close()

	stats, err := st.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal stats", err)
	}
	result := TraceResult{Stats: stats, Batches: []TraceBatch{}}

	if opts.Seq != 0 {
		b, err := st.ReadBatch(ctx, opts.Session, opts.Seq)
		if errors.Is(err, sql.ErrNoRows) {
			msg := fmt.Sprintf("no batch %d in session %s", opts.Seq, opts.Session)
			_ = f.Error(ErrCodeJournal, msg, nil)
			return NewExitError(ExitFailure, msg)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read batch", err)
		}
		result.Batches = append(result.Batches, traceBatch(b))
	} else {
		batches, err := st.ListBatches(ctx, store.BatchFilter{
			Session:    opts.Session,
			Target:     engine.Target(opts.Target),
			FromSeq:    opts.FromSeq,
			FailedOnly: opts.Failed,
			Limit:      opts.Limit,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list batches", err)
		}
		for _, b := range batches {
			result.Batches = append(result.Batches, traceBatch(b))
		}
	}

	f.VerboseLog("loaded %d batch(es) from %s", len(result.Batches), opts.Database)
	return f.Emit(result, func(w io.Writer) { writeTraceText(w, result) })
}

// openJournal opens an existing journal; unlike store.Open it does not
// create a missing file.
func openJournal(path string) (*store.Store, error) {
	if !fileExists(path) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

func traceBatch(b store.Batch) TraceBatch {
	tb := TraceBatch{
		Session:       b.Session,
		Target:        string(b.Target),
		Seq:           b.Seq,
		Count:         b.Count,
		Hash:          b.Hash,
		Error:         b.Error,
		EngineVersion: b.EngineVersion,
	}
	for _, in := range b.Instructions {
		tb.Instructions = append(tb.Instructions, TraceInstruction{
			Position: in.Position,
			Kind:     in.Kind.String(),
			Name:     in.Name,
			Args:     in.Args,
		})
	}
	return tb
}

func writeTraceText(w io.Writer, result TraceResult) {
	fmt.Fprintln(w, "=== Journal ===")
	fmt.Fprintf(w, "  Sessions:     %d\n", result.Stats.Sessions)
	fmt.Fprintf(w, "  Batches:      %d\n", result.Stats.Batches)
	fmt.Fprintf(w, "  Instructions: %d\n", result.Stats.Instructions)
	fmt.Fprintf(w, "  Failed:       %d\n", result.Stats.Failed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Batches ===")
	if len(result.Batches) == 0 {
		fmt.Fprintln(w, "  (no batches)")
		return
	}
	rows := make([][]any, 0, len(result.Batches))
	for _, b := range result.Batches {
		rows = append(rows, []any{truncateID(b.Session), b.Target, b.Seq, b.Count, b.Hash[:min(12, len(b.Hash))], b.Error})
	}
	table(w, []any{"SESSION", "TARGET", "SEQ", "COUNT", "HASH", "ERROR"}, rows)

	for _, b := range result.Batches {
		if len(b.Instructions) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "=== Batch %d ===\n", b.Seq)
		for _, in := range b.Instructions {
			fmt.Fprintf(w, "  %3d %-24s %s\n", in.Position, in.Kind, canonicalText(in.Args))
		}
	}
}

// truncateID shortens long session ids for table display.
func truncateID(id string) string {
	if len(id) > 13 {
		return id[:13] + "..."
	}
	return id
}
