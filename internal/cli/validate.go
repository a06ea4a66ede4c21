package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/drawseq/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Config *config.Config `json:"config,omitempty"`
	Error  *ConfigError   `json:"error,omitempty"`
}

// ConfigError locates a configuration problem.
type ConfigError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a configuration file",
		Long: `Check a CUE configuration file against the drawseq schema and print
the resolved configuration with defaults filled in.

Error codes:
  E001 - File missing or unreadable
  E002 - CUE syntax error
  E003 - Value violates the schema
  E004 - Value cannot be decoded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := config.Load(path)
	if err == nil {
		f.VerboseLog("validated %s", path)
		return f.Emit(ValidationResult{Valid: true, Config: &cfg}, func(w io.Writer) {
			fmt.Fprintln(w, "ok   config valid")
			fmt.Fprintf(w, "  flush_threshold: %d\n", cfg.FlushThreshold)
			fmt.Fprintf(w, "  code_page:       %s\n", cfg.CodePage)
			fmt.Fprintf(w, "  surface:         %dx%d\n", cfg.Surface.Width, cfg.Surface.Height)
			if cfg.Journal != "" {
				fmt.Fprintf(w, "  journal:         %s\n", cfg.Journal)
			}
			fmt.Fprintf(w, "  log_level:       %s\n", cfg.LogLevel)
			fmt.Fprintf(w, "  allocator:       %s\n", cfg.Allocator)
		})
	}

	ce := toConfigError(err)
	// A missing file is a command error, not a validation failure.
	code := ExitFailure
	if ce.Code == config.ErrCodeNotFound {
		code = ExitCommandError
	}

	result := ValidationResult{Valid: false, Error: ce}
	if err := f.Fail(ce.Code, ce.Message, result, func(w io.Writer) {
		fmt.Fprintln(w, "FAIL validation failed")
		fmt.Fprintln(w)
		if ce.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d\n", ce.File, ce.Line, ce.Column)
		}
		fmt.Fprintf(w, "  %s: %s\n", ce.Code, ce.Message)
	}); err != nil {
		return err
	}
	return NewExitError(code, fmt.Sprintf("%s: %s", ce.Code, ce.Message))
}

func toConfigError(err error) *ConfigError {
	var le *config.LoadError
	if !errors.As(err, &le) {
		return &ConfigError{Code: config.ErrCodeNotFound, Message: err.Error()}
	}
	ce := &ConfigError{Code: le.Code, Message: le.Message}
	if le.Pos.IsValid() {
		ce.File = le.Pos.Filename()
		ce.Line = le.Pos.Line()
		ce.Column = le.Pos.Column()
	}
	return ce
}
