// parley is the CLI for human-in-the-loop questions from coding agents.
package main

import (
	"os"

	"github.com/parleyhq/parley/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
