package lifecycle

import (
	"context"
	"fmt"
	"os"

	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
)

// stashMessagePrefix labels stashes made on removal so they can be found
// in `git stash list`.
const stashMessagePrefix = "worktree-remove: "

// RemoveOptions controls Remove.
type RemoveOptions struct {
	// DryRun runs every check but changes nothing.
	DryRun bool

	// Force discards uncommitted changes and deletes unmerged branches.
	Force bool

	// Stash saves uncommitted changes before removing the worktree.
	Stash bool

	// DeleteBranch deletes the slot's branch after removing the worktree.
	DeleteBranch bool
}

// RemoveResult describes a removed (or, in dry-run mode, planned) binding.
type RemoveResult struct {
	Slot          model.SlotID `json:"slot"`
	Issue         *int         `json:"issue"`
	Branch        string       `json:"branch"`
	WorktreePath  string       `json:"worktreePath"`
	RelativePath  string       `json:"relativePath"`
	Dirty         bool         `json:"dirty"`
	Stashed       bool         `json:"stashed"`
	Merged        bool         `json:"merged"`
	BranchDeleted bool         `json:"branchDeleted"`
	Stale         bool         `json:"stale"`
	DryRun        bool         `json:"dryRun"`
}

// Remove removes the target's worktree and frees its slot.
//
// Safety checks run before anything is changed: a dirty worktree needs
// Stash or Force, and deleting an unmerged branch needs Force. A binding
// whose directory is already gone (stale) is freed without touching git
// beyond pruning its administrative entry.
func (s *Service) Remove(ctx context.Context, target model.Target, opts RemoveOptions) (*RemoveResult, error) {
	reg, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}

	assignment := findBinding(reg, target)
	if assignment == nil {
		return nil, fmt.Errorf("no worktree found for %s: %w", target, model.ErrNotFound)
	}
	if !assignment.IsBound() || assignment.Branch == nil {
		return nil, fmt.Errorf("slot %s: %w", assignment.Slot, model.ErrNotAssigned)
	}

	result := &RemoveResult{
		Slot:   assignment.Slot,
		Issue:  assignment.Issue,
		Branch: *assignment.Branch,
		DryRun: opts.DryRun,
	}
	result.WorktreePath, err = s.Layout.WorktreePath(assignment.WorktreeName())
	if err != nil {
		return nil, err
	}
	result.RelativePath = s.Layout.RelativePath(result.WorktreePath)

	root := s.Layout.RepoRoot
	exists := dirExists(result.WorktreePath)
	result.Stale = !exists

	if exists {
		dirty, err := s.Git.HasUncommittedChanges(result.WorktreePath)
		if err != nil {
			return nil, err
		}
		result.Dirty = dirty
	}

	if result.Dirty {
		switch {
		case opts.Stash:
			if !opts.DryRun {
				logging.UserInfo("Stashing uncommitted changes")
				if err := s.Git.Stash(result.WorktreePath, stashMessagePrefix+result.Branch); err != nil {
					return nil, err
				}
				result.Stashed = true
			}
		case !opts.Force:
			return nil, fmt.Errorf("%s: %w (use --stash to stash them or --force to discard)",
				result.RelativePath, model.ErrUncommittedChanges)
		}
	}

	base := s.Git.MainBranch(root)
	merged, err := s.Git.IsMerged(root, result.Branch, base)
	if err != nil {
		logging.Warn("could not determine merge status of "+result.Branch, err)
	}
	result.Merged = merged

	if opts.DeleteBranch && !merged && !opts.Force {
		return nil, fmt.Errorf("%s: %w into %s (use --force to delete anyway)",
			result.Branch, model.ErrUnmergedBranch, base)
	}

	logging.Debug("remove plan", logging.Fields{
		"slot":   result.Slot,
		"branch": result.Branch,
		"stale":  result.Stale,
		"merged": merged,
	})

	if opts.DryRun {
		return result, nil
	}

	if exists {
		logging.UserInfo("Removing worktree %s", result.RelativePath)
		if err := s.Git.Remove(root, result.WorktreePath, opts.Force); err != nil {
			return nil, err
		}
	} else {
		logging.UserWarning("Worktree path %s does not exist (stale entry)", result.RelativePath)
		if err := s.Git.Prune(root); err != nil {
			logging.Warn("git worktree prune failed", err)
		}
	}

	if opts.DeleteBranch && s.Git.BranchExists(root, result.Branch) {
		if err := s.Git.DeleteBranch(root, result.Branch, opts.Force || !merged); err != nil {
			return nil, err
		}
		result.BranchDeleted = true
	}

	if err := registry.Free(reg, result.Slot); err != nil {
		return nil, err
	}
	if err := registry.Write(s.Layout.WorktreesDir, reg); err != nil {
		return nil, err
	}

	return result, nil
}

// findBinding locates the assignment a removal target refers to. Branch
// targets also match the worktree directory name, so both
// "feature/42-login" and "42-login" work.
func findBinding(reg *model.WorktreeRegistry, target model.Target) *model.SlotAssignment {
	if target.IsIssue() {
		return registry.FindByIssue(reg, target.Issue)
	}
	if a := registry.FindByBranch(reg, target.Branch); a != nil {
		return a
	}
	return registry.FindByWorktreeName(reg, target.Branch)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
