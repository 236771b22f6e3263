// Package layout computes where a repository's slot state and worktrees
// live on disk.
//
// For a repository checked out at /src/my-app the layout is:
//
//	/src/my-app-worktrees/                          worktrees directory
//	/src/my-app-worktrees/.worktree-registry.json   slot registry
//	/src/my-app-worktrees/config/                   slot config, schema, templates
//	/src/my-app-worktrees/42-fix-login-bug/         one worktree per bound slot
package layout

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// worktreesSuffix is appended to the repository directory name.
const worktreesSuffix = "-worktrees"

// configDirName is the config subdirectory of the worktrees directory.
const configDirName = "config"

// Layout holds the resolved directories for one repository.
type Layout struct {
	// RepoRoot is the main checkout.
	RepoRoot string

	// WorktreesDir is the sibling directory holding worktrees and state.
	WorktreesDir string

	// ConfigDir holds the slot configuration and env templates.
	ConfigDir string
}

// New computes the layout for the repository at repoRoot.
func New(repoRoot string) Layout {
	root := filepath.Clean(repoRoot)
	worktrees := filepath.Join(filepath.Dir(root), filepath.Base(root)+worktreesSuffix)
	return Layout{
		RepoRoot:     root,
		WorktreesDir: worktrees,
		ConfigDir:    filepath.Join(worktrees, configDirName),
	}
}

// WorktreePath returns the directory of the named worktree. The name is
// joined with securejoin so that "../" segments or symlinks inside the
// worktrees directory cannot point outside of it.
func (l Layout) WorktreePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("worktree name must not be empty")
	}
	path, err := securejoin.SecureJoin(l.WorktreesDir, name)
	if err != nil {
		return "", fmt.Errorf("invalid worktree name %q: %w", name, err)
	}
	return path, nil
}

// RelativePath returns path relative to the repository root, for display.
// It falls back to the absolute path when no relative form exists.
func (l Layout) RelativePath(path string) string {
	rel, err := filepath.Rel(l.RepoRoot, path)
	if err != nil {
		return path
	}
	return rel
}

// unsafeNameRe matches characters that do not belong in directory names.
var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// WorktreeName derives the worktree directory name from a branch: the
// "feature/" prefix and then one leading "<type>/" segment are removed,
// and any remaining separators become hyphens.
//
//	feature/142-add-login → 142-add-login
//	bugfix/session-leak   → session-leak
//	main                  → main
func WorktreeName(branch string) string {
	name := strings.TrimPrefix(branch, "feature/")
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeNameRe.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "worktree"
	}
	return name
}
