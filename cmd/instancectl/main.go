// Package main is the entry point for the instancectl CLI.
//
// instancectl provisions and tears down groups of IaaS instances addressed
// by caller-assigned virtual ids, on Hetzner Cloud or OpenStack.
//
// Commands: allocate, delete, find, status, version.
//
// For detailed usage information, run:
//
//	instancectl --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/instancectl/cmd/instancectl/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
