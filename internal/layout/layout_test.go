package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l := New("/src/my-app/")
	assert.Equal(t, "/src/my-app", l.RepoRoot)
	assert.Equal(t, "/src/my-app-worktrees", l.WorktreesDir)
	assert.Equal(t, "/src/my-app-worktrees/config", l.ConfigDir)
}

// TestWorktreePath verifies names stay inside the worktrees directory.
func TestWorktreePath(t *testing.T) {
	root := t.TempDir()
	l := New(filepath.Join(root, "repo"))

	path, err := l.WorktreePath("42-fix-login-bug")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "repo-worktrees", "42-fix-login-bug"), path)

	path, err = l.WorktreePath("../../etc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "repo-worktrees", "etc"), path)

	// A symlink inside the worktrees dir is resolved relative to it.
	require.NoError(t, os.MkdirAll(l.WorktreesDir, 0755))
	require.NoError(t, os.Symlink("/", filepath.Join(l.WorktreesDir, "escape")))
	path, err = l.WorktreePath("escape/tmp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.WorktreesDir, "tmp"), path)

	_, err = l.WorktreePath("")
	assert.Error(t, err)
}

func TestRelativePath(t *testing.T) {
	l := New("/src/my-app")
	assert.Equal(t, "../my-app-worktrees/42-x", l.RelativePath("/src/my-app-worktrees/42-x"))
}

func TestWorktreeName(t *testing.T) {
	tests := []struct {
		branch   string
		expected string
	}{
		{"feature/142-add-login", "142-add-login"},
		{"bugfix/session-leak", "session-leak"},
		{"main", "main"},
		{"team/feature/x", "feature-x"},
		{"feature/", "worktree"},
		{"fix/über cool", "ber-cool"},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			assert.Equal(t, tt.expected, WorktreeName(tt.branch))
		})
	}
}
