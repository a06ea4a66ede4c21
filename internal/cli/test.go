package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/drawseq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
	Golden string
	Update bool
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run all YAML scenarios in a directory and report a summary.

A scenario passes when none of its steps fails unexpectedly and every
assertion holds. With --golden, each scenario's batch trace must also
match <golden-dir>/<name>.golden byte for byte; --update rewrites those
files from the current run instead.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, unreadable config)

Examples:
  drawseq test ./scenarios
  drawseq test ./scenarios --filter query
  drawseq test ./scenarios --golden ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name contains this text")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files instead of comparing")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		_ = f.Error(ErrCodeScenario, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	h := harness.New(harness.WithConfig(cfg), harness.WithLogger(opts.logger(cmd.ErrOrStderr(), cfg)))

	suite, err := h.RunDir(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	if opts.Golden != "" {
		for _, r := range suite.Results {
			if err := checkGolden(opts, r); err != nil {
				markFailed(suite, r, err.Error())
			}
		}
	}

	text := func(w io.Writer) { writeSuiteText(w, suite, opts.Update) }
	if suite.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", suite.Failed)
		if err := f.Fail(ErrCodeFailed, msg, suite, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Emit(suite, text)
}

// checkGolden compares or rewrites the golden trace of one result.
func checkGolden(opts *TestOptions, r *harness.Result) error {
	path := filepath.Join(opts.Golden, r.Scenario+".golden")
	current, err := harness.TraceSnapshot(r)
	if err != nil {
		return fmt.Errorf("failed to snapshot trace: %w", err)
	}

	if opts.Update {
		if err := os.MkdirAll(opts.Golden, 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, current, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("golden file missing: %s (run with --update to create it)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), bytes.TrimSpace(current)) {
		return fmt.Errorf("trace does not match %s (run with --update to regenerate)", path)
	}
	return nil
}

// markFailed moves a passing result to the failure list.
func markFailed(suite *harness.SuiteResult, r *harness.Result, msg string) {
	if r.Pass {
		suite.Passed--
		suite.Failed++
		suite.Failures = append(suite.Failures, harness.ScenarioFailure{Name: r.Scenario})
	}
	r.AddError(msg)
	for i := range suite.Failures {
		if suite.Failures[i].Name == r.Scenario {
			suite.Failures[i].Errors = r.Errors
		}
	}
}

func writeSuiteText(w io.Writer, suite *harness.SuiteResult, updated bool) {
	for _, r := range suite.Results {
		switch {
		case !r.Pass:
			fmt.Fprintf(w, "FAIL %s\n", r.Scenario)
		case updated:
			fmt.Fprintf(w, "ok   %s (golden updated)\n", r.Scenario)
		default:
			fmt.Fprintf(w, "ok   %s\n", r.Scenario)
		}
	}
	for _, failure := range suite.Failures {
		name := failure.Name
		if name == "" {
			name = failure.Path
		}
		fmt.Fprintf(w, "\n--- %s\n", name)
		for _, e := range failure.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", suite.Passed, suite.Failed, suite.Total)
	if suite.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
	}
}
