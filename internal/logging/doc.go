// Package logging provides logging utilities for worktree-slots.
//
// This package provides two categories of output:
//   - Debug logging: structured logs for tracing (via logrus), shown with --verbose
//   - User output: formatted status messages for end users
//
// # Debug Logging
//
//	logging.Debug("allocating slot", logging.Fields{"slot": id, "branch": branch})
//	logging.Command("git", args)
//
// # User Output
//
//	logging.UserInfo("Creating worktree at %s", path)
//	logging.UserSuccess("Slot %s assigned", id)
//	logging.UserWarning("Port %d appears to be in use", port)
//	logging.UserError("Failed to remove worktree: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//   - debug logs: stderr
package logging
