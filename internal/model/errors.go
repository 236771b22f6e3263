package model

import (
	"errors"
	"fmt"
)

// Error taxonomy for slot lifecycle operations. Callers wrap these with
// context (fmt.Errorf("...: %w", ErrX)) and test for them with errors.Is.
var (
	// ErrNotFound reports a missing registry, slot configuration or binding.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports that the issue or branch already has a worktree,
	// or that init would overwrite an existing configuration.
	ErrAlreadyExists = errors.New("already exists")

	// ErrSlotNotFound reports an unknown slot identifier.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrAlreadyBound reports an attempt to allocate a slot that is in use.
	ErrAlreadyBound = errors.New("slot already in use")

	// ErrNoFreeSlot reports that every slot is bound and growth is disabled.
	ErrNoFreeSlot = errors.New("no free slot")

	// ErrIssueNotFound reports that the issue tracker has no such issue.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrUncommittedChanges reports a dirty worktree on removal.
	ErrUncommittedChanges = errors.New("worktree has uncommitted changes")

	// ErrUnmergedBranch reports a branch deletion request for unmerged work.
	ErrUnmergedBranch = errors.New("branch is not merged")

	// ErrNotAssigned reports a registry record without a worktree binding.
	ErrNotAssigned = errors.New("slot has no worktree assigned")
)

// ExitCode defines standard CLI exit codes.
// Every failure maps to ExitGeneralError; the distinction lives in the
// error message, not in the process status.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates the command failed.
	ExitGeneralError ExitCode = 1
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
