// Package main is the entry point for the rezprod CLI.
package main

import (
	"os"

	"github.com/runger/rezprod/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
