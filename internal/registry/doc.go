// Package registry persists and mutates the slot allocation table
// (.worktree-registry.json) that lives next to the worktrees of a repository.
//
// The registry is the single source of truth for which slot is bound to
// which issue and branch. Operations follow a strict load → mutate → persist
// cycle: Read returns an in-memory WorktreeRegistry, the pure functions in
// this package (Allocate, Free, AddSlot, Find*) change it, and Write
// replaces the file in full. There is no global state and no file locking;
// the last writer wins.
package registry
