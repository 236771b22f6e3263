package lifecycle

import (
	"context"
	"path/filepath"
	"time"

	"github.com/shinji-kodama/worktree-slots/internal/layout"
	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
	"github.com/shinji-kodama/worktree-slots/internal/worktree"
)

// SlotRow is one line of `list`: a registry assignment joined with its
// slot config and checked against git.
type SlotRow struct {
	Slot     model.SlotID     `json:"slot"`
	Status   model.SlotStatus `json:"status"`
	Issue    *int             `json:"issue"`
	Branch   string           `json:"branch,omitempty"`
	Worktree string           `json:"worktree,omitempty"`
	Path     string           `json:"path,omitempty"`

	// CheckedOut is set when the worktree has a different branch checked
	// out than the one recorded in the registry.
	CheckedOut string `json:"checkedOut,omitempty"`

	Ports     []slots.PortVar `json:"ports"`
	CreatedAt *time.Time      `json:"createdAt"`
}

// Summary counts rows per status.
type Summary struct {
	Active int `json:"active"`
	Free   int `json:"free"`
	Stale  int `json:"stale"`
}

// ListResult is the output of List.
type ListResult struct {
	RepoName string    `json:"repoName"`
	Rows     []SlotRow `json:"slots"`
	Summary  Summary   `json:"summary"`
}

// Reconcile derives the status of every assignment without modifying
// anything:
//
//	unbound                                   → free
//	bound, git knows a worktree at its path   → active
//	bound, no such worktree                   → stale
//
// Paths are compared after cleaning and resolving symlinks, so a
// registry under a symlinked directory (e.g. macOS /var → /private/var)
// still matches git's output. cfg may be nil; rows then carry no ports.
func Reconcile(reg *model.WorktreeRegistry, cfg *slots.SlotsConfig, lay layout.Layout, gitWorktrees []worktree.WorktreeInfo) []SlotRow {
	live := make(map[string]worktree.WorktreeInfo, len(gitWorktrees))
	for _, wt := range gitWorktrees {
		if wt.Prunable {
			continue
		}
		live[canonicalPath(wt.Path)] = wt
	}

	rows := make([]SlotRow, 0, len(reg.Assignments))
	for i := range reg.Assignments {
		a := &reg.Assignments[i]
		row := SlotRow{Slot: a.Slot, Status: model.StatusFree}

		if cfg != nil {
			if sc := cfg.Get(a.Slot); sc != nil {
				row.Ports = sc.Ports()
			}
		}

		if a.IsBound() {
			row.Issue = a.Issue
			row.Branch = a.BranchName()
			row.Worktree = a.WorktreeName()
			row.CreatedAt = a.CreatedAt
			row.Status = model.StatusStale

			if path, err := lay.WorktreePath(row.Worktree); err == nil {
				row.Path = path
				if wt, ok := live[canonicalPath(path)]; ok {
					row.Status = model.StatusActive
					// Detached worktrees have no branch to compare.
					if branch := wt.ShortBranch(); branch != "" && branch != row.Branch {
						row.CheckedOut = branch
					}
				}
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// FilterRows keeps the rows with the given status.
func FilterRows(rows []SlotRow, status model.SlotStatus) []SlotRow {
	out := make([]SlotRow, 0, len(rows))
	for _, r := range rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Summarize counts the rows per status.
func Summarize(rows []SlotRow) Summary {
	var sum Summary
	for _, r := range rows {
		switch r.Status {
		case model.StatusActive:
			sum.Active++
		case model.StatusFree:
			sum.Free++
		case model.StatusStale:
			sum.Stale++
		}
	}
	return sum
}

// List reports every slot with its reconciled status. Both the registry
// and the slot config must exist.
func (s *Service) List(ctx context.Context) (*ListResult, error) {
	reg, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}
	cfg, err := s.loadSlots()
	if err != nil {
		return nil, err
	}

	gitWorktrees, err := s.Git.List(s.Layout.RepoRoot)
	if err != nil {
		return nil, err
	}
	logging.Debug("git worktrees", logging.Fields{"count": len(gitWorktrees)})

	rows := Reconcile(reg, cfg, s.Layout, gitWorktrees)
	return &ListResult{
		RepoName: reg.RepoName,
		Rows:     rows,
		Summary:  Summarize(rows),
	}, nil
}

// canonicalPath cleans path and resolves symlinks when the path exists.
func canonicalPath(path string) string {
	clean := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		return resolved
	}
	return clean
}
