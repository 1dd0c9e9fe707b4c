// Package main is the entry point for the tapedeck application.
package main

import (
	"os"

	"github.com/jmylchreest/tapedeck/cmd/tapedeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
