package main

import (
	"os"

	"github.com/splitbooks-dev/splitbooks/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
