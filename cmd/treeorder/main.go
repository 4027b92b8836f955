// Command treeorder maintains dense sibling positions in a tree stored in
// SQLite or PostgreSQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/treeorder/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
