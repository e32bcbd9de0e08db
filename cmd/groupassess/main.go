// cmd/groupassess/main.go
//
// This is the entry point for the groupassess CLI.
// With no subcommand it opens the TUI; submit, assess, join and render
// drive the same workflow controllers without a terminal UI.

package main

import (
	"fmt"
	"os"

	"github.com/kingrea/groupassess/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
