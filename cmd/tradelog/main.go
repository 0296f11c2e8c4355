package main

import (
	"os"

	"github.com/tradelog-dev/tradelog/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
