package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotStatus represents the reconciled state of a slot, derived at list time
// by comparing the registry against `git worktree list`.
//
//	free   → no binding in the registry
//	active → bound, and git reports a worktree at the expected path
//	stale  → bound, but the worktree is gone (deleted out-of-band)
type SlotStatus string

const (
	// StatusActive indicates the slot is bound and its worktree exists.
	StatusActive SlotStatus = "active"

	// StatusFree indicates the slot has no binding and can be allocated.
	StatusFree SlotStatus = "free"

	// StatusStale indicates the registry still records a binding but git
	// no longer knows the worktree. Running `delete` frees it.
	StatusStale SlotStatus = "stale"
)

// String returns the string representation of SlotStatus.
func (s SlotStatus) String() string {
	return string(s)
}

// IsValid checks whether the SlotStatus value is one of the predefined states.
func (s SlotStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusFree, StatusStale:
		return true
	default:
		return false
	}
}

// ParseSlotStatus converts a string to a SlotStatus.
// Returns an error if the string does not match any valid status.
func ParseSlotStatus(s string) (SlotStatus, error) {
	status := SlotStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid slot status: %q (valid: active, free, stale)", s)
	}
	return status, nil
}

// SlotID identifies a slot. Slot configurations name slots either with bare
// integers ("1", "2") or with symbolic names ("slot-1"); both are kept as text.
//
// In JSON, an all-digit SlotID is encoded as a number so that registries
// created with numeric slots stay compatible with existing tooling:
//
//	{"slot": 1}        ← SlotID("1")
//	{"slot": "slot-1"} ← SlotID("slot-1")
type SlotID string

// String returns the slot identifier as text.
func (id SlotID) String() string {
	return string(id)
}

// IsNumeric reports whether the identifier is a bare positive integer.
func (id SlotID) IsNumeric() bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Number extracts the slot number from "N" or "slot-N" identifiers.
// The boolean result is false for identifiers that carry no number.
func (id SlotID) Number() (int, bool) {
	s := strings.TrimPrefix(string(id), "slot-")
	if !SlotID(s).IsNumeric() {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// MarshalJSON encodes numeric identifiers as JSON numbers and everything
// else as JSON strings.
func (id SlotID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		if n, err := strconv.Atoi(string(id)); err == nil {
			return []byte(strconv.Itoa(n)), nil
		}
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *SlotID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		i, err := n.Int64()
		if err != nil {
			return fmt.Errorf("slot id %s is not an integer", n)
		}
		*id = SlotID(strconv.FormatInt(i, 10))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("slot id must be a number or a string: %w", err)
	}
	*id = SlotID(s)
	return nil
}

// SlotAssignment is the registry record for one slot. Records are created
// when the registry is initialized (or grown) and are never deleted; freeing
// a slot clears its binding fields instead.
//
// The binding fields are either all set (bound) or all nil (free), except
// Issue which stays nil for slots created from a bare branch name.
type SlotAssignment struct {
	// Slot is the identifier of the slot this record belongs to.
	Slot SlotID `json:"slot"`

	// Issue is the tracker issue number the slot is working on, if any.
	Issue *int `json:"issue"`

	// Branch is the git branch checked out in the slot's worktree.
	Branch *string `json:"branch"`

	// Worktree is the worktree directory name (not the full path).
	// A non-nil Worktree is what makes a slot "bound".
	Worktree *string `json:"worktree"`

	// CreatedAt is the time the binding was made.
	CreatedAt *time.Time `json:"createdAt"`
}

// IsBound reports whether the slot currently holds a worktree binding.
func (a *SlotAssignment) IsBound() bool {
	return a.Worktree != nil
}

// BranchName returns the bound branch or an empty string.
func (a *SlotAssignment) BranchName() string {
	if a.Branch == nil {
		return ""
	}
	return *a.Branch
}

// WorktreeName returns the bound worktree name or an empty string.
func (a *SlotAssignment) WorktreeName() string {
	if a.Worktree == nil {
		return ""
	}
	return *a.Worktree
}

// WorktreeRegistry is the persisted allocation table for one repository.
//
// Assignments keep the order they were created in; FindFreeSlot relies on
// this order to pick the lowest free slot.
type WorktreeRegistry struct {
	// RepoName is the repository name (from the origin remote, or the
	// repository directory name as a fallback).
	RepoName string `json:"repoName"`

	// SlotCount always equals len(Assignments).
	SlotCount int `json:"slotCount"`

	// Assignments holds one record per slot, with unique Slot values.
	Assignments []SlotAssignment `json:"assignments"`
}

// IntPtr returns a pointer to n. It keeps optional-field assignment terse.
func IntPtr(n int) *int {
	return &n
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
