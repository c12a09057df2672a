// Package main is the entry point for the caraveld server.
package main

import (
	"os"

	"github.com/caravelhq/caravel/cmd/caraveld/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
