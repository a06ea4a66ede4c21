// Command drawseq runs draw-command scenarios against an offscreen canvas
// and inspects the batches they journal.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/drawseq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
