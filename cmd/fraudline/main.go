package main

import (
	"os"

	"github.com/fraudline-dev/fraudline/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
