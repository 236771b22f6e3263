package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/worktree-slots/internal/issue"
	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
	"github.com/shinji-kodama/worktree-slots/internal/worktree"
)

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// fakeGit records calls and simulates worktrees as plain directories.
type fakeGit struct {
	branches map[string]bool
	merged   map[string]bool
	dirty    map[string]bool
	stashes  []string
	pruned   int
	calls    []string
	added    []worktree.WorktreeInfo
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		branches: map[string]bool{"main": true},
		merged:   map[string]bool{},
		dirty:    map[string]bool{},
	}
}

func (g *fakeGit) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGit) Add(_, branch, path, _ string) error {
	g.record("add %s %s", branch, filepath.Base(path))
	g.added = append(g.added, worktree.WorktreeInfo{Path: path, Branch: "refs/heads/" + branch})
	return os.MkdirAll(path, 0755)
}

func (g *fakeGit) Remove(_, path string, force bool) error {
	g.record("remove %s force=%t", filepath.Base(path), force)
	return os.RemoveAll(path)
}

func (g *fakeGit) Prune(string) error {
	g.pruned++
	return nil
}

func (g *fakeGit) List(repoRoot string) ([]worktree.WorktreeInfo, error) {
	return append([]worktree.WorktreeInfo{{Path: repoRoot, Branch: "refs/heads/main"}}, g.added...), nil
}

func (g *fakeGit) BranchExists(_, branch string) bool { return g.branches[branch] }

func (g *fakeGit) CreateBranch(_, branch, base string) error {
	g.record("branch %s from %s", branch, base)
	g.branches[branch] = true
	return nil
}

func (g *fakeGit) MainBranch(string) string { return "main" }

func (g *fakeGit) IsMerged(_, branch, _ string) (bool, error) { return g.merged[branch], nil }

func (g *fakeGit) DeleteBranch(_, branch string, force bool) error {
	g.record("delete-branch %s force=%t", branch, force)
	delete(g.branches, branch)
	return nil
}

func (g *fakeGit) HasUncommittedChanges(path string) (bool, error) { return g.dirty[path], nil }

func (g *fakeGit) Stash(path, message string) error {
	g.stashes = append(g.stashes, message)
	g.dirty[path] = false
	return nil
}

func (g *fakeGit) RepoName(repoRoot string) string { return filepath.Base(repoRoot) }

// fakeIssues serves issue titles from a map and counts lookups.
type fakeIssues struct {
	titles  map[int]string
	fetches int
}

func (f *fakeIssues) Fetch(_ context.Context, n int) (*issue.Issue, error) {
	f.fetches++
	title, ok := f.titles[n]
	if !ok {
		return nil, fmt.Errorf("issue #%d: %w", n, model.ErrIssueNotFound)
	}
	return &issue.Issue{Number: n, Title: title, State: "OPEN"}, nil
}

type fakePorts map[int]bool

func (f fakePorts) InUse(port int) bool { return f[port] }

type fakePublishers map[int]string

func (f fakePublishers) PublishedPorts(context.Context) (map[int]string, error) { return f, nil }

// fixture is a repository layout in a temp dir with a two-slot YAML
// config (WEB_PORT 3001/3002) and an empty registry.
type fixture struct {
	svc    *Service
	git    *fakeGit
	issues *fakeIssues
	ports  fakePorts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	prevOut, prevErr := logging.Stdout, logging.Stderr
	logging.Stdout, logging.Stderr = io.Discard, io.Discard
	t.Cleanup(func() { logging.Stdout, logging.Stderr = prevOut, prevErr })

	repoRoot := filepath.Join(t.TempDir(), "my-app")
	require.NoError(t, os.MkdirAll(repoRoot, 0755))

	f := &fixture{
		git:    newFakeGit(),
		issues: &fakeIssues{titles: map[int]string{42: "Fix login bug", 7: "Add dark mode"}},
		ports:  fakePorts{},
	}
	f.svc = NewService(repoRoot, f.git, f.issues, f.ports)
	f.svc.Now = func() time.Time { return testNow }

	format, err := slots.ParseFormat("yaml")
	require.NoError(t, err)
	cfg, err := slots.Scaffold(slots.ScaffoldOptions{
		Count:     2,
		Format:    format,
		PortBases: map[string]int{"WEB_PORT": 3000},
	})
	require.NoError(t, err)
	require.NoError(t, slots.Write(f.svc.Layout.ConfigDir, cfg))
	require.NoError(t, registry.Write(f.svc.Layout.WorktreesDir, registry.CreateForSlots("my-app", cfg.IDs())))

	return f
}

func (f *fixture) registry(t *testing.T) *model.WorktreeRegistry {
	t.Helper()
	reg, err := registry.Read(f.svc.Layout.WorktreesDir)
	require.NoError(t, err)
	return reg
}

// bind marks slot id as bound to branch (and issue, when non-zero) and
// creates the worktree directory unless stale is set.
func (f *fixture) bind(t *testing.T, id model.SlotID, issueNumber int, branch string, stale bool) string {
	t.Helper()

	reg := f.registry(t)
	var iss *int
	if issueNumber != 0 {
		iss = model.IntPtr(issueNumber)
	}
	name := filepath.Base(branch)
	require.NoError(t, registry.Allocate(reg, id, iss, branch, name, testNow))
	require.NoError(t, registry.Write(f.svc.Layout.WorktreesDir, reg))

	f.git.branches[branch] = true
	path, err := f.svc.Layout.WorktreePath(name)
	require.NoError(t, err)
	if !stale {
		require.NoError(t, os.MkdirAll(path, 0755))
		f.git.added = append(f.git.added, worktree.WorktreeInfo{Path: path, Branch: "refs/heads/" + branch})
	}
	return path
}
