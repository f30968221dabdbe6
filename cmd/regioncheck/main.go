// Package main implements the regioncheck CLI.
// It loads Go packages, runs the region-based isolation analysis over their
// ssa form and reports accesses that may race with a concurrent task or
// another isolation domain.
package main

import (
	"os"

	"github.com/regioncheck/regioncheck/cmd/regioncheck/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`regioncheck version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
