package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/drawseq/internal/harness"
	"github.com/roach88/drawseq/internal/ir"
)

// KindInfo describes one instruction kind.
type KindInfo struct {
	Code  uint16 `json:"code"`
	Name  string `json:"name"`
	Query bool   `json:"query"`
}

// KindsResult is the output of the kinds command.
type KindsResult struct {
	Kinds []KindInfo `json:"kinds"`
	Steps []string   `json:"steps,omitempty"`
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	var steps bool

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List instruction kinds and scenario steps",
		Long: `List every instruction kind with its wire code. Query kinds flush the
pending batch and return a value to the caller.

With --steps, also list the op names a scenario step may use.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := listKinds(steps)
			return rootOpts.formatter(cmd).Emit(result, func(w io.Writer) { writeKindsText(w, result) })
		},
	}

	cmd.Flags().BoolVar(&steps, "steps", false, "also list scenario step ops")

	return cmd
}

func listKinds(steps bool) KindsResult {
	var result KindsResult
	for _, k := range ir.Kinds() {
		result.Kinds = append(result.Kinds, KindInfo{Code: uint16(k), Name: k.String(), Query: k.IsQuery()})
	}
	if steps {
		result.Steps = harness.StepNames()
	}
	return result
}

func writeKindsText(w io.Writer, result KindsResult) {
	rows := make([][]any, 0, len(result.Kinds))
	for _, k := range result.Kinds {
		query := ""
		if k.Query {
			query = "query"
		}
		rows = append(rows, []any{k.Code, k.Name, query})
	}
	table(w, []any{"CODE", "KIND", ""}, rows)

	if len(result.Steps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Scenario steps:")
		for _, s := range result.Steps {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
}
