// Package lifecycle orchestrates the slot commands: create, remove, list,
// init and validate.
//
// Every mutating operation follows the same cycle:
//
//	registry.Read → decide → side effects (git, files) → registry.Write
//
// The Service talks to git, the issue tracker, the port prober and Docker
// through small interfaces so the orchestration can be tested with fakes.
// Nothing is rolled back: when a step fails after git has already created a
// branch or worktree, that state stays and the registry is left untouched,
// so a retry after fixing the cause (or a manual `git worktree remove`)
// recovers.
package lifecycle
