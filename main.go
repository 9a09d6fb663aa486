package main

import (
	"os"

	"github.com/rami12200/trading-signals-sub000/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}