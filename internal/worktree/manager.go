package worktree

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// WorktreeInfo holds metadata about a single Git worktree entry
// as parsed from `git worktree list --porcelain` output.
//
// Example porcelain output for a single worktree block:
//
//	worktree /path/to/feature-branch
//	HEAD abc123def456
//	branch refs/heads/feature-branch
type WorktreeInfo struct {
	// Path is the absolute filesystem path to the worktree directory.
	Path string

	// Branch is the full branch reference (e.g., "refs/heads/main").
	// Empty if the worktree is in a detached HEAD state.
	Branch string

	// HEAD is the commit SHA that the worktree currently points to.
	HEAD string

	// IsBare indicates whether this worktree entry represents a bare repository.
	IsBare bool

	// Prunable is set when git reports the worktree directory as missing.
	Prunable bool
}

// ShortBranch returns the branch name without the refs/heads/ prefix.
func (w WorktreeInfo) ShortBranch() string {
	return strings.TrimPrefix(w.Branch, "refs/heads/")
}

// Manager runs git commands against a repository.
//
// It is stateless; every method receives the repository (or worktree) path.
type Manager struct{}

// NewManager creates a new worktree Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Add creates a worktree at worktreePath with branch checked out.
//
// If the branch does not exist yet it is created from baseBranch (HEAD
// when baseBranch is empty) with `git worktree add -b`.
func (m *Manager) Add(repoPath, branch, worktreePath, baseBranch string) error {
	if m.BranchExists(repoPath, branch) {
		_, err := runGit(repoPath, "worktree", "add", worktreePath, branch)
		return err
	}

	args := []string{"worktree", "add", "-b", branch, worktreePath}
	if baseBranch != "" {
		args = append(args, baseBranch)
	}
	_, err := runGit(repoPath, args...)
	return err
}

// CreateBranch creates branch from base without checking it out.
func (m *Manager) CreateBranch(repoPath, branch, base string) error {
	args := []string{"branch", branch}
	if base != "" {
		args = append(args, base)
	}
	_, err := runGit(repoPath, args...)
	return err
}

// List returns all worktrees of the repository, the main checkout included.
func (m *Manager) List(repoPath string) ([]WorktreeInfo, error) {
	output, err := runGit(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelainOutput(output), nil
}

// Remove deletes a worktree. With force, worktrees with uncommitted or
// untracked changes are removed too.
func (m *Manager) Remove(repoPath, worktreePath string, force bool) error {
	args := []string{"worktree", "remove", worktreePath}
	if force {
		args = []string{"worktree", "remove", "--force", worktreePath}
	}
	_, err := runGit(repoPath, args...)
	return err
}

// Prune drops administrative entries for worktrees whose directories are gone.
func (m *Manager) Prune(repoPath string) error {
	_, err := runGit(repoPath, "worktree", "prune")
	return err
}

// GetRepoRoot returns the top-level directory of the working tree that
// contains path. For a linked worktree this is the worktree, not the main
// checkout; see MainRepoRoot.
func (m *Manager) GetRepoRoot(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// MainRepoRoot returns the main checkout of the repository containing
// path, even when path is inside a linked worktree. Slot state lives next
// to the main checkout, so commands resolve it through here.
func (m *Manager) MainRepoRoot(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	commonDir := strings.TrimSpace(output)
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(path, commonDir)
	}
	if filepath.Base(commonDir) == ".git" {
		return filepath.Dir(filepath.Clean(commonDir)), nil
	}
	// Bare repositories or custom GIT_DIR layouts have no .git directory
	// to strip; fall back to the working tree root.
	return m.GetRepoRoot(path)
}

// BranchExists checks whether a local branch with the given name exists.
func (m *Manager) BranchExists(repoPath, branch string) bool {
	_, err := runGit(repoPath, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// MainBranch returns "main" or "master", whichever exists, preferring
// "main". When neither exists it returns "main".
func (m *Manager) MainBranch(repoPath string) string {
	for _, candidate := range []string{"main", "master"} {
		if m.BranchExists(repoPath, candidate) {
			return candidate
		}
	}
	return "main"
}

// IsMerged reports whether branch is fully merged into base.
func (m *Manager) IsMerged(repoPath, branch, base string) (bool, error) {
	output, err := runGit(repoPath, "branch", "--merged", base, "--format=%(refname:short)")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == branch {
			return true, nil
		}
	}
	return false, nil
}

// DeleteBranch deletes a local branch. Without force git refuses to delete
// unmerged work (-d); with force it uses -D.
func (m *Manager) DeleteBranch(repoPath, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := runGit(repoPath, "branch", flag, branch)
	return err
}

// HasUncommittedChanges reports whether the working copy at path has
// staged, unstaged or untracked changes.
func (m *Manager) HasUncommittedChanges(path string) (bool, error) {
	output, err := runGit(path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// Stash saves all changes in the working copy at path, untracked files
// included, under the given message.
func (m *Manager) Stash(path, message string) error {
	_, err := runGit(path, "stash", "push", "--include-untracked", "-m", message)
	return err
}

// remoteNameRe extracts the last path segment of a remote URL without a
// trailing ".git". It handles both https://host/org/repo.git and
// git@host:org/repo.git forms.
var remoteNameRe = regexp.MustCompile(`([^/:]+?)(?:\.git)?/?$`)

// RepoName derives the repository name from the origin remote, falling
// back to the directory name of repoPath.
func (m *Manager) RepoName(repoPath string) string {
	output, err := runGit(repoPath, "remote", "get-url", "origin")
	if err == nil {
		if match := remoteNameRe.FindStringSubmatch(strings.TrimSpace(output)); match != nil && match[1] != "" {
			return match[1]
		}
	}
	return filepath.Base(filepath.Clean(repoPath))
}

// runGit executes a git command in repoPath and returns its stdout.
//
// The path is passed with -C so the process working directory never
// changes. Failures are wrapped in a model.CLIError that includes git's
// stderr for diagnostics.
func runGit(repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	logging.Command(repoPath, "git", args)

	// #nosec G204: args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to run git (is it installed?)", err)
		}
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitGeneralError, message, err)
	}

	return stdout.String(), nil
}

// parsePorcelainOutput parses `git worktree list --porcelain` output.
//
// Blocks are separated by blank lines. Each line is a "key value" pair or
// a standalone marker such as "bare", "detached" or "prunable <reason>".
func parsePorcelainOutput(output string) []WorktreeInfo {
	var worktrees []WorktreeInfo
	var current *WorktreeInfo

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			if current != nil {
				worktrees = append(worktrees, *current)
				current = nil
			}
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		if key == "worktree" {
			current = &WorktreeInfo{Path: value}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "HEAD":
			current.HEAD = value
		case "branch":
			current.Branch = value
		case "bare":
			current.IsBare = true
		case "prunable":
			current.Prunable = true
		}
	}

	if current != nil {
		worktrees = append(worktrees, *current)
	}
	return worktrees
}
