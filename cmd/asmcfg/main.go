// Package main implements the asmcfg CLI. It provides commands for
// expanding MASM includes, building control flow graphs from assembly,
// and comparing graphs.
package main

import (
	"os"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/cmd/asmcfg/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`asmcfg version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
