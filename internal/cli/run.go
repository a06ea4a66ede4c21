package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/drawseq/internal/harness"
	"github.com/roach88/drawseq/internal/ir"
	"github.com/roach88/drawseq/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string
	Session string
	PNG     string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario against an offscreen canvas",
		Long: `Run a single scenario file.

Each step drives a Sequence whose batches are executed on an offscreen
canvas. The command prints every dispatched batch, the values returned by
query steps, and any failed step or assertion.

With --journal (or a journal set in the config), every batch is also
recorded in a SQLite journal under a session id, a fresh UUIDv7 unless
--session is given. With --png, the final canvas is written as a PNG.

Exit codes:
  0 - Scenario passed
  1 - A step or assertion failed
  2 - Command error (unreadable scenario, config or journal)

Examples:
  drawseq run ./scenarios/threshold_autoflush.yaml
  drawseq run ./scenarios/pixels.yaml --png out.png
  drawseq run ./scenarios/pixels.yaml --journal ./journal.db --session demo`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal to record batches in (overrides config journal)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: fresh UUIDv7)")
	cmd.Flags().StringVar(&opts.PNG, "png", "", "write the final canvas to this PNG file")

	return cmd
}

// RunReport is the output of the run command.
type RunReport struct {
	*harness.Result
	Session string `json:"session,omitempty"`
	PNG     string `json:"png,omitempty"`
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.logger(cmd.ErrOrStderr(), cfg)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = f.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	hopts := []harness.Option{harness.WithConfig(cfg), harness.WithLogger(logger)}
	report := RunReport{}
	journal := opts.Journal
	if journal == "" {
		journal = cfg.Journal
	}
	if journal != "" {
		st, err := store.Open(journal)
		if err != nil {
			_ = f.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", slog.Any("error", closeErr))
			}
		}()

		report.Session = opts.Session
		if report.Session == "" {
			report.Session = uuid.Must(uuid.NewV7()).String()
		}
		hopts = append(hopts, harness.WithJournal(st, report.Session))
		f.VerboseLog("journaling to %s as session %s", journal, report.Session)
	}

	result, err := harness.New(hopts...).Run(scenario)
	if err != nil {
		_ = f.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}
	report.Result = result

	if opts.PNG != "" && result.Surface != nil {
		if err := result.Surface.SavePNG(opts.PNG); err != nil {
			return WrapExitError(ExitCommandError, "failed to write png", err)
		}
		report.PNG = opts.PNG
	}

	text := func(w io.Writer) { writeRunText(w, report) }
	if !result.Pass {
		if err := f.Fail(ErrCodeFailed, fmt.Sprintf("scenario %s failed", result.Scenario), report, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", result.Scenario))
	}
	return f.Emit(report, text)
}

func writeRunText(w io.Writer, r RunReport) {
	mark := "PASS"
	if !r.Pass {
		mark = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (target %s)\n", mark, r.Scenario, r.Target)
	if r.Session != "" {
		fmt.Fprintf(w, "  session: %s\n", r.Session)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Batches ===")
	if len(r.Batches) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, b := range r.Batches {
		fmt.Fprintf(w, "  [%d] %-10s %3d  %v\n", b.Seq, b.Reason, b.Count, b.Kinds)
		if b.Error != "" {
			fmt.Fprintf(w, "      error: %s\n", b.Error)
		}
	}

	if len(r.Queries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Queries ===")
		steps := make([]int, 0, len(r.Queries))
		for i := range r.Queries {
			steps = append(steps, i)
		}
		sort.Ints(steps)
		for _, i := range steps {
			fmt.Fprintf(w, "  steps[%d] %s\n", i, canonicalText(r.Queries[i]))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Appended:   %d\n", r.Stats.Appended)
	fmt.Fprintf(w, "  Suppressed: %d\n", r.Stats.Suppressed)
	fmt.Fprintf(w, "  Batches:    %d\n", r.Stats.Batches)
	fmt.Fprintf(w, "  Failed:     %d\n", r.Stats.Failed)
	fmt.Fprintf(w, "  Live:       %d\n", r.Live)
	if r.PNG != "" {
		fmt.Fprintf(w, "  PNG:        %s\n", r.PNG)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// canonicalText renders a query value as canonical JSON for display.
func canonicalText(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
