// Package main is the entry point for the worktree-slots CLI.
//
// It delegates all functionality to the internal/cli package, which
// defines the cobra commands. Build-time variables (version, commit, date)
// are injected via ldflags by GoReleaser.
package main

import (
	"github.com/shinji-kodama/worktree-slots/internal/cli"
)

// Set by GoReleaser at build time (see .goreleaser.yml).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
