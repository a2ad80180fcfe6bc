package main

import (
	"fmt"
	"os"

	"github.com/confset/confset/cmd/confset/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "confset: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
