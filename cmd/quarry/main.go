// Package main is the entry point for the quarry CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/quarry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
