// Command wurm inspects and exercises SQLite databases holding wurm record
// types.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/wurm/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), "wurm:", err)
		}
		os.Exit(cli.ExitStatus(err))
	}
}
