package main

import (
	"os"

	"github.com/alphaquant/alpha/backend/cmd/alpha/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
