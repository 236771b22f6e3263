package worktree

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a repository on branch "main" with one commit.
//
// A local identity is configured so `git commit` works on machines without
// a global git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runTestGit(t, dir, "init", "-b", "main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Repo\n"), 0644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit runs git in dir and fails the test on a non-zero exit.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// commitFile writes name in dir and commits it.
func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	runTestGit(t, dir, "add", name)
	runTestGit(t, dir, "commit", "-m", "add "+name)
}

// currentBranch returns the branch checked out in dir.
func currentBranch(t *testing.T, dir string) string {
	t.Helper()
	return strings.TrimSpace(runTestGit(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
}

func TestAddNewBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()
	worktreePath := filepath.Join(t.TempDir(), "42-login")

	require.NoError(t, m.Add(repoPath, "feature/42-login", worktreePath, ""))

	_, err := os.Stat(worktreePath)
	assert.NoError(t, err, "worktree directory should exist after Add")

	assert.Equal(t, "feature/42-login", currentBranch(t, worktreePath))
	assert.True(t, m.BranchExists(repoPath, "feature/42-login"))
}

func TestAddExistingBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	require.NoError(t, m.CreateBranch(repoPath, "existing", "main"))

	worktreePath := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, m.Add(repoPath, "existing", worktreePath, ""))

	assert.Equal(t, "existing", currentBranch(t, worktreePath))
}

func TestAddWithBaseBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	runTestGit(t, repoPath, "checkout", "-b", "develop")
	commitFile(t, repoPath, "develop.txt", "develop\n")
	runTestGit(t, repoPath, "checkout", "main")

	worktreePath := filepath.Join(t.TempDir(), "from-develop")
	require.NoError(t, m.Add(repoPath, "from-develop", worktreePath, "develop"))

	_, err := os.Stat(filepath.Join(worktreePath, "develop.txt"))
	assert.NoError(t, err, "worktree should contain files from the base branch")
}

func TestList(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "listed")
	require.NoError(t, m.Add(repoPath, "listed", worktreePath, ""))

	worktrees, err := m.List(repoPath)
	require.NoError(t, err)
	require.Len(t, worktrees, 2, "main checkout plus one linked worktree")

	assert.Equal(t, "main", worktrees[0].ShortBranch())
	assert.Equal(t, "listed", worktrees[1].ShortBranch())
	assert.NotEmpty(t, worktrees[1].HEAD)
}

func TestRemove(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "to-remove")
	require.NoError(t, m.Add(repoPath, "to-remove", worktreePath, ""))
	require.NoError(t, m.Remove(repoPath, worktreePath, false))

	_, err := os.Stat(worktreePath)
	assert.True(t, os.IsNotExist(err), "worktree directory should be gone")

	worktrees, err := m.List(repoPath)
	require.NoError(t, err)
	assert.Len(t, worktrees, 1)
}

func TestRemoveDirtyRequiresForce(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "dirty")
	require.NoError(t, m.Add(repoPath, "dirty", worktreePath, ""))
	require.NoError(t, os.WriteFile(filepath.Join(worktreePath, "scratch.txt"), []byte("x"), 0644))

	assert.Error(t, m.Remove(repoPath, worktreePath, false))
	assert.NoError(t, m.Remove(repoPath, worktreePath, true))
}

func TestPruneAfterManualDelete(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "vanished")
	require.NoError(t, m.Add(repoPath, "vanished", worktreePath, ""))
	require.NoError(t, os.RemoveAll(worktreePath))

	require.NoError(t, m.Prune(repoPath))

	worktrees, err := m.List(repoPath)
	require.NoError(t, err)
	assert.Len(t, worktrees, 1)
}

func TestGetRepoRoot(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	sub := filepath.Join(repoPath, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := m.GetRepoRoot(sub)
	require.NoError(t, err)

	expected, _ := filepath.EvalSymlinks(repoPath)
	actual, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, expected, actual)
}

func TestGetRepoRootOutsideRepo(t *testing.T) {
	_, err := NewManager().GetRepoRoot(t.TempDir())
	assert.Error(t, err)
}

func TestMainRepoRootFromWorktree(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "linked")
	require.NoError(t, m.Add(repoPath, "linked", worktreePath, ""))

	fromMain, err := m.MainRepoRoot(repoPath)
	require.NoError(t, err)
	fromLinked, err := m.MainRepoRoot(worktreePath)
	require.NoError(t, err)

	expected, _ := filepath.EvalSymlinks(repoPath)
	actualMain, _ := filepath.EvalSymlinks(fromMain)
	actualLinked, _ := filepath.EvalSymlinks(fromLinked)
	assert.Equal(t, expected, actualMain)
	assert.Equal(t, expected, actualLinked)
}

func TestBranchExists(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	assert.True(t, m.BranchExists(repoPath, "main"))
	assert.False(t, m.BranchExists(repoPath, "nonexistent"))

	require.NoError(t, m.CreateBranch(repoPath, "later", ""))
	assert.True(t, m.BranchExists(repoPath, "later"))
}

func TestMainBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()
	assert.Equal(t, "main", m.MainBranch(repoPath))

	runTestGit(t, repoPath, "branch", "-m", "main", "master")
	assert.Equal(t, "master", m.MainBranch(repoPath))

	runTestGit(t, repoPath, "branch", "-m", "master", "trunk")
	assert.Equal(t, "main", m.MainBranch(repoPath), "defaults to main when neither exists")
}

func TestIsMergedAndDeleteBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	require.NoError(t, m.CreateBranch(repoPath, "merged", "main"))
	merged, err := m.IsMerged(repoPath, "merged", "main")
	require.NoError(t, err)
	assert.True(t, merged, "a branch at main's tip is merged")

	runTestGit(t, repoPath, "checkout", "-b", "ahead")
	commitFile(t, repoPath, "ahead.txt", "ahead\n")
	runTestGit(t, repoPath, "checkout", "main")

	merged, err = m.IsMerged(repoPath, "ahead", "main")
	require.NoError(t, err)
	assert.False(t, merged)

	assert.Error(t, m.DeleteBranch(repoPath, "ahead", false), "-d refuses unmerged work")
	assert.NoError(t, m.DeleteBranch(repoPath, "ahead", true))
	assert.NoError(t, m.DeleteBranch(repoPath, "merged", false))
	assert.False(t, m.BranchExists(repoPath, "ahead"))
	assert.False(t, m.BranchExists(repoPath, "merged"))
}

func TestHasUncommittedChangesAndStash(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	dirty, err := m.HasUncommittedChanges(repoPath)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "untracked.txt"), []byte("x"), 0644))
	dirty, err = m.HasUncommittedChanges(repoPath)
	require.NoError(t, err)
	assert.True(t, dirty, "untracked files count as changes")

	require.NoError(t, m.Stash(repoPath, "worktree-remove: main"))
	dirty, err = m.HasUncommittedChanges(repoPath)
	require.NoError(t, err)
	assert.False(t, dirty)

	assert.Contains(t, runTestGit(t, repoPath, "stash", "list"), "worktree-remove: main")
}

func TestRepoName(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	assert.Equal(t, filepath.Base(repoPath), m.RepoName(repoPath), "falls back to directory name")

	runTestGit(t, repoPath, "remote", "add", "origin", "git@github.com:acme/widgets.git")
	assert.Equal(t, "widgets", m.RepoName(repoPath))

	runTestGit(t, repoPath, "remote", "set-url", "origin", "https://github.com/acme/gadgets")
	assert.Equal(t, "gadgets", m.RepoName(repoPath))
}

func TestParsePorcelainOutput(t *testing.T) {
	output := "worktree /repo\nHEAD aaa\nbranch refs/heads/main\n\n" +
		"worktree /repo-worktrees/42-login\nHEAD bbb\nbranch refs/heads/feature/42-login\n\n" +
		"worktree /repo-worktrees/gone\nHEAD ccc\ndetached\nprunable gitdir file points to non-existent location\n"

	worktrees := parsePorcelainOutput(output)
	require.Len(t, worktrees, 3)

	assert.Equal(t, "/repo", worktrees[0].Path)
	assert.Equal(t, "main", worktrees[0].ShortBranch())
	assert.Equal(t, "feature/42-login", worktrees[1].ShortBranch())
	assert.Equal(t, "bbb", worktrees[1].HEAD)
	assert.Empty(t, worktrees[2].Branch, "detached worktrees have no branch")
	assert.True(t, worktrees[2].Prunable)
}

func TestParsePorcelainOutputBare(t *testing.T) {
	worktrees := parsePorcelainOutput("worktree /srv/repo.git\nbare\n")
	require.Len(t, worktrees, 1)
	assert.True(t, worktrees[0].IsBare)
}

func TestParsePorcelainOutputEmpty(t *testing.T) {
	assert.Empty(t, parsePorcelainOutput(""))
}
