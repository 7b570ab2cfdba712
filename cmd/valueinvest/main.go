package main

import (
	"os"

	"github.com/valueinvest/valueinvest/cmd/valueinvest/commands"
)

// main is the entry point for the valueinvest CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
