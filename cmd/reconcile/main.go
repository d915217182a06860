package main

import (
	"os"

	"github.com/brentcurtis76/casa-reconcile/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
