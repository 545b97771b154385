// Command mindful runs the arcade from a terminal: the HTTP API, the
// terminal UI and score and token tools.
package main

import (
	"fmt"
	"os"

	"github.com/MJE43/mindful-arcade/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
