package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/worktree-slots/internal/envtmpl"
	"github.com/shinji-kodama/worktree-slots/internal/issue"
	"github.com/shinji-kodama/worktree-slots/internal/layout"
	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/port"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

// CreateOptions controls Create.
type CreateOptions struct {
	// DryRun resolves branch, slot and paths without touching git, files
	// or the registry.
	DryRun bool

	// AutoGrow adds a slot when every slot is bound, in addition to the
	// autoGrowSlots setting of the slot config.
	AutoGrow bool
}

// CreateResult describes a created (or, in dry-run mode, planned) worktree.
type CreateResult struct {
	Slot             model.SlotID `json:"slot"`
	Issue            *int         `json:"issue"`
	IssueTitle       string       `json:"issueTitle,omitempty"`
	Branch           string       `json:"branch"`
	WorktreeName     string       `json:"worktree"`
	WorktreePath     string       `json:"worktreePath"`
	RelativePath     string       `json:"relativePath"`
	BranchCreated    bool         `json:"branchCreated"`
	Grown            bool         `json:"grown"`
	DryRun           bool         `json:"dryRun"`
	ConfigWarnings   []string     `json:"configWarnings"`
	PortWarnings     []string     `json:"portWarnings"`
	TemplateWarnings []string     `json:"templateWarnings"`
	FilesWritten     []string     `json:"filesWritten"`
}

// Create binds a free slot to the target and creates its worktree.
//
// Steps:
//  1. Resolve the branch (issue targets are named after the issue title)
//     and refuse targets that already have a slot.
//  2. Pick the first free slot, growing the slot config if allowed.
//  3. Probe the slot's ports. Busy ports only produce warnings.
//  4. Ensure the branch exists, then add the worktree.
//  5. Render the env templates into the worktree.
//  6. Persist the grown config (if any) and the registry.
func (s *Service) Create(ctx context.Context, target model.Target, opts CreateOptions) (*CreateResult, error) {
	reg, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}
	cfg, err := s.loadSlots()
	if err != nil {
		return nil, err
	}

	result := &CreateResult{DryRun: opts.DryRun}

	branch, err := s.resolveBranch(ctx, reg, target, result)
	if err != nil {
		return nil, err
	}
	result.Branch = branch
	result.WorktreeName = layout.WorktreeName(branch)

	if other := registry.FindByWorktreeName(reg, result.WorktreeName); other != nil {
		return nil, fmt.Errorf("worktree directory %s is already used by slot %s (branch %s): %w",
			result.WorktreeName, other.Slot, other.BranchName(), model.ErrAlreadyExists)
	}

	assignment, grown, err := s.pickSlot(reg, cfg, opts)
	if err != nil {
		return nil, err
	}
	result.Slot = assignment.Slot
	result.Grown = grown

	// A registry slot without a config entry still gets a worktree; its
	// ports are not checked and slot placeholders stay unresolved.
	slotCfg := cfg.Get(assignment.Slot)
	if slotCfg == nil {
		msg := fmt.Sprintf("slot %s is not defined in %s, using empty config", assignment.Slot, filepath.Base(cfg.Path))
		logging.UserWarning("%s", msg)
		result.ConfigWarnings = append(result.ConfigWarnings, msg)
	}

	result.PortWarnings = s.portWarnings(ctx, slotCfg)

	result.WorktreePath, err = s.Layout.WorktreePath(result.WorktreeName)
	if err != nil {
		return nil, err
	}
	result.RelativePath = s.Layout.RelativePath(result.WorktreePath)

	logging.Debug("create plan", logging.Fields{
		"slot":   result.Slot,
		"branch": branch,
		"path":   result.WorktreePath,
		"grown":  grown,
	})

	if opts.DryRun {
		return result, nil
	}

	root := s.Layout.RepoRoot
	if !s.Git.BranchExists(root, branch) {
		base := s.Git.MainBranch(root)
		logging.UserInfo("Creating branch %s from %s", branch, base)
		if err := s.Git.CreateBranch(root, branch, base); err != nil {
			return nil, err
		}
		result.BranchCreated = true
	}

	logging.UserInfo("Creating worktree at %s", result.RelativePath)
	if err := s.Git.Add(root, branch, result.WorktreePath, ""); err != nil {
		return nil, err
	}

	if err := s.renderTemplates(cfg, slotCfg, result); err != nil {
		return nil, err
	}

	if grown {
		if err := slots.Write(s.Layout.ConfigDir, cfg); err != nil {
			return nil, err
		}
		logging.UserInfo("Added slot %s to %s", result.Slot, filepath.Base(cfg.Path))
	}

	if err := registry.Allocate(reg, result.Slot, result.Issue, branch, result.WorktreeName, s.now()); err != nil {
		return nil, err
	}
	if err := registry.Write(s.Layout.WorktreesDir, reg); err != nil {
		return nil, err
	}

	return result, nil
}

// resolveBranch turns the target into a branch name and checks that no
// slot is bound to it yet. The issue binding is checked before asking the
// tracker, so duplicates fail without a network call.
func (s *Service) resolveBranch(ctx context.Context, reg *model.WorktreeRegistry, target model.Target, result *CreateResult) (string, error) {
	if !target.IsIssue() {
		if existing := registry.FindByBranch(reg, target.Branch); existing != nil {
			return "", fmt.Errorf("worktree for branch %q already exists (slot %s): %w",
				target.Branch, existing.Slot, model.ErrAlreadyExists)
		}
		return target.Branch, nil
	}

	n := target.Issue
	if existing := registry.FindByIssue(reg, n); existing != nil {
		return "", fmt.Errorf("worktree for issue #%d already exists (slot %s): %w", n, existing.Slot, model.ErrAlreadyExists)
	}

	iss, err := s.Issues.Fetch(ctx, n)
	if err != nil {
		return "", err
	}
	logging.UserInfo("Issue #%d: %s", n, iss.Title)

	branch := issue.BranchName(n, iss.Title)
	if existing := registry.FindByBranch(reg, branch); existing != nil {
		return "", fmt.Errorf("worktree for branch %q already exists (slot %s): %w",
			branch, existing.Slot, model.ErrAlreadyExists)
	}

	result.Issue = model.IntPtr(n)
	result.IssueTitle = iss.Title
	return branch, nil
}

// pickSlot returns the first free assignment. When none is free and growth
// is allowed, a new slot is appended to both the in-memory config and the
// in-memory registry; nothing is persisted here.
func (s *Service) pickSlot(reg *model.WorktreeRegistry, cfg *slots.SlotsConfig, opts CreateOptions) (*model.SlotAssignment, bool, error) {
	if free := registry.FindFreeSlot(reg); free != nil {
		return free, false, nil
	}

	if !opts.AutoGrow && !cfg.AutoGrowSlots {
		return nil, false, fmt.Errorf("all %d slots in use, remove a worktree first (or pass --grow): %w",
			len(reg.Assignments), model.ErrNoFreeSlot)
	}

	checker := s.Ports
	if checker == nil {
		checker = port.NewProber()
	}
	sc, err := slots.Grow(cfg, port.NewAllocator(checker))
	if err != nil {
		return nil, false, err
	}
	assignment, err := registry.AddSlot(reg, sc.ID)
	if err != nil {
		return nil, false, err
	}

	logging.Debug("grew slot config", logging.Fields{"slot": sc.ID, "ports": sc.Ports()})
	return assignment, true, nil
}

// renderTemplates writes one env file per template into the new worktree.
// Template warnings are collected, never fatal.
func (s *Service) renderTemplates(cfg *slots.SlotsConfig, slotCfg *slots.SlotConfig, result *CreateResult) error {
	templates, err := envtmpl.TemplateFiles(s.Layout.ConfigDir)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return nil
	}

	envFiles, err := envtmpl.RootEnvFiles(s.Layout.RepoRoot, cfg.CopyFromRootRepo)
	if err != nil {
		return err
	}
	rootEnv, err := envtmpl.LoadRootEnv(envFiles)
	if err != nil {
		return err
	}

	for _, path := range templates {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		rendered, warnings := envtmpl.ProcessTemplate(string(content), slotCfg, rootEnv)
		result.TemplateWarnings = append(result.TemplateWarnings, warnings...)

		name := envtmpl.OutputName(path)
		if err := os.WriteFile(filepath.Join(result.WorktreePath, name), []byte(rendered), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		result.FilesWritten = append(result.FilesWritten, name)
		logging.UserSuccess("Created %s", name)
	}
	return nil
}
