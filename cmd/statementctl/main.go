package main

import (
	"os"

	"github.com/insightdelivered/statement-pipeline/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
