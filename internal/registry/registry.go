package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"
	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// FileName is the registry file name inside the worktrees directory.
const FileName = ".worktree-registry.json"

// Path returns the registry file location for a worktrees directory.
func Path(worktreesDir string) string {
	return filepath.Join(worktreesDir, FileName)
}

// Exists reports whether a registry file is present.
func Exists(worktreesDir string) bool {
	_, err := os.Stat(Path(worktreesDir))
	return err == nil
}

// Read loads the registry from disk.
//
// A missing file yields an error wrapping model.ErrNotFound so callers can
// tell the user to run `init`. Malformed JSON and inconsistent slot counts
// are reported as plain errors.
func Read(worktreesDir string) (*model.WorktreeRegistry, error) {
	path := Path(worktreesDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("registry %s: %w (run `worktree-slots init` first)", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}

	var reg model.WorktreeRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}

	// slotCount is redundant with the assignment list. Older files may have
	// drifted, so the list wins.
	reg.SlotCount = len(reg.Assignments)

	return &reg, nil
}

// Write serializes the registry with 2-space indentation and a trailing
// newline. The file is replaced atomically, so readers never observe a
// half-written registry.
func Write(worktreesDir string, reg *model.WorktreeRegistry) error {
	if err := os.MkdirAll(worktreesDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", worktreesDir, err)
	}

	reg.SlotCount = len(reg.Assignments)
	if reg.Assignments == nil {
		// Always emit [] instead of null.
		reg.Assignments = []model.SlotAssignment{}
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	data = append(data, '\n')

	if err := atomicwriter.WriteFile(Path(worktreesDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// CreateEmpty builds a registry with n free slots numbered 1..n.
func CreateEmpty(repoName string, n int) *model.WorktreeRegistry {
	ids := make([]model.SlotID, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, model.SlotID(fmt.Sprint(i)))
	}
	return CreateForSlots(repoName, ids)
}

// CreateForSlots builds a registry with one free assignment per id, in the
// given order. It is used when the slot configuration names its slots.
func CreateForSlots(repoName string, ids []model.SlotID) *model.WorktreeRegistry {
	assignments := make([]model.SlotAssignment, 0, len(ids))
	for _, id := range ids {
		assignments = append(assignments, model.SlotAssignment{Slot: id})
	}
	return &model.WorktreeRegistry{
		RepoName:    repoName,
		SlotCount:   len(assignments),
		Assignments: assignments,
	}
}

// FindFreeSlot returns the first unbound assignment in stored order,
// or nil when every slot is in use.
func FindFreeSlot(reg *model.WorktreeRegistry) *model.SlotAssignment {
	for i := range reg.Assignments {
		if !reg.Assignments[i].IsBound() {
			return &reg.Assignments[i]
		}
	}
	return nil
}

// FindBySlotID returns the assignment for id, or nil.
func FindBySlotID(reg *model.WorktreeRegistry, id model.SlotID) *model.SlotAssignment {
	for i := range reg.Assignments {
		if reg.Assignments[i].Slot == id {
			return &reg.Assignments[i]
		}
	}
	return nil
}

// FindByIssue returns the first assignment bound to issue, or nil.
func FindByIssue(reg *model.WorktreeRegistry, issue int) *model.SlotAssignment {
	for i := range reg.Assignments {
		a := &reg.Assignments[i]
		if a.Issue != nil && *a.Issue == issue {
			return a
		}
	}
	return nil
}

// FindByBranch returns the first assignment bound to branch, or nil.
func FindByBranch(reg *model.WorktreeRegistry, branch string) *model.SlotAssignment {
	for i := range reg.Assignments {
		a := &reg.Assignments[i]
		if a.Branch != nil && *a.Branch == branch {
			return a
		}
	}
	return nil
}

// FindByWorktreeName returns the first assignment whose worktree directory
// is called name, or nil. `delete` falls back to this so users can pass the
// short worktree name instead of the full branch.
func FindByWorktreeName(reg *model.WorktreeRegistry, name string) *model.SlotAssignment {
	for i := range reg.Assignments {
		a := &reg.Assignments[i]
		if a.Worktree != nil && *a.Worktree == name {
			return a
		}
	}
	return nil
}

// Allocate binds slot id to a unit of work.
//
// Fails with model.ErrSlotNotFound when id is unknown and with
// model.ErrAlreadyBound when the slot already holds a worktree. On success
// every binding field is set and CreatedAt records now.
func Allocate(reg *model.WorktreeRegistry, id model.SlotID, issue *int, branch, worktreeName string, now time.Time) error {
	a := FindBySlotID(reg, id)
	if a == nil {
		return fmt.Errorf("slot %s: %w", id, model.ErrSlotNotFound)
	}
	if a.IsBound() {
		return fmt.Errorf("slot %s: %w", id, model.ErrAlreadyBound)
	}

	if issue != nil {
		a.Issue = model.IntPtr(*issue)
	} else {
		a.Issue = nil
	}
	a.Branch = model.StringPtr(branch)
	a.Worktree = model.StringPtr(worktreeName)
	created := now.UTC()
	a.CreatedAt = &created
	return nil
}

// Free clears every binding field of slot id. Freeing a free slot is a
// no-op, which keeps cleanup after partial failures safe to repeat.
func Free(reg *model.WorktreeRegistry, id model.SlotID) error {
	a := FindBySlotID(reg, id)
	if a == nil {
		return fmt.Errorf("slot %s: %w", id, model.ErrSlotNotFound)
	}
	a.Issue = nil
	a.Branch = nil
	a.Worktree = nil
	a.CreatedAt = nil
	return nil
}

// AddSlot appends a new free assignment and bumps SlotCount.
// It is the registry half of slot auto-growth.
func AddSlot(reg *model.WorktreeRegistry, id model.SlotID) (*model.SlotAssignment, error) {
	if FindBySlotID(reg, id) != nil {
		return nil, fmt.Errorf("slot %s: %w", id, model.ErrAlreadyExists)
	}
	reg.Assignments = append(reg.Assignments, model.SlotAssignment{Slot: id})
	reg.SlotCount = len(reg.Assignments)
	return &reg.Assignments[len(reg.Assignments)-1], nil
}

// CheckUnique reports violations of the registry invariants: duplicate slot
// ids, and an issue or branch bound to more than one slot. An empty result
// means the registry is consistent.
func CheckUnique(reg *model.WorktreeRegistry) []string {
	var problems []string

	slotSeen := make(map[model.SlotID]bool)
	issueSeen := make(map[int]model.SlotID)
	branchSeen := make(map[string]model.SlotID)

	for _, a := range reg.Assignments {
		if slotSeen[a.Slot] {
			problems = append(problems, fmt.Sprintf("Slot %s appears more than once", a.Slot))
		}
		slotSeen[a.Slot] = true

		if a.Issue != nil {
			if other, ok := issueSeen[*a.Issue]; ok {
				problems = append(problems, fmt.Sprintf("Issue #%d is bound to slots %s and %s", *a.Issue, other, a.Slot))
			} else {
				issueSeen[*a.Issue] = a.Slot
			}
		}
		if a.Branch != nil {
			if other, ok := branchSeen[*a.Branch]; ok {
				problems = append(problems, fmt.Sprintf("Branch %s is bound to slots %s and %s", *a.Branch, other, a.Slot))
			} else {
				branchSeen[*a.Branch] = a.Slot
			}
		}
		if a.Worktree == nil && (a.Issue != nil || a.Branch != nil || a.CreatedAt != nil) {
			problems = append(problems, fmt.Sprintf("Slot %s has binding fields set but no worktree", a.Slot))
		}
	}

	return problems
}
