// Package model defines the domain types and value objects for the
// worktree-slots CLI.
//
// This package contains pure data structures with no external dependencies.
// The slot registry (WorktreeRegistry, SlotAssignment) is the only persisted
// state; every command reloads it from disk, mutates it in memory and writes
// it back in full.
//
// The package also defines the error taxonomy (ErrNotFound, ErrNoFreeSlot, ...),
// exit codes (ExitCode) and a custom error type (CLIError) that carries exit
// codes for proper OS process exit handling.
package model
