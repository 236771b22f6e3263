package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/worktree-slots/internal/layout"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
	"github.com/shinji-kodama/worktree-slots/internal/worktree"
)

func TestReconcile(t *testing.T) {
	lay := layout.New("/src/my-app")
	reg := registry.CreateEmpty("my-app", 3)
	require.NoError(t, registry.Allocate(reg, "1", model.IntPtr(42), "feature/42-fix-login-bug", "42-fix-login-bug", testNow))
	require.NoError(t, registry.Allocate(reg, "2", nil, "feature/gone", "gone", testNow))

	cfg := &slots.SlotsConfig{Slots: []slots.SlotConfig{
		{ID: "1", Values: map[string]slots.Value{"WEB_PORT": slots.IntValue(3001), "HOST": slots.StringValue("localhost")}},
		{ID: "2", Values: map[string]slots.Value{"WEB_PORT": slots.IntValue(3002)}},
	}}

	gitWorktrees := []worktree.WorktreeInfo{
		{Path: "/src/my-app", Branch: "refs/heads/main"},
		{Path: "/src/my-app-worktrees/./42-fix-login-bug/", Branch: "refs/heads/feature/42-fix-login-bug"},
	}

	rows := Reconcile(reg, cfg, lay, gitWorktrees)
	require.Len(t, rows, 3)

	assert.Equal(t, model.StatusActive, rows[0].Status)
	assert.Equal(t, 42, *rows[0].Issue)
	assert.Equal(t, filepath.Join("/src/my-app-worktrees", "42-fix-login-bug"), rows[0].Path)
	assert.Equal(t, []slots.PortVar{{Name: "WEB_PORT", Port: 3001}}, rows[0].Ports)

	assert.Equal(t, model.StatusStale, rows[1].Status)
	assert.Equal(t, "feature/gone", rows[1].Branch)

	assert.Equal(t, model.StatusFree, rows[2].Status)
	assert.Empty(t, rows[2].Branch)
	assert.Nil(t, rows[2].Ports, "slot 3 has no config entry")

	assert.Equal(t, Summary{Active: 1, Free: 1, Stale: 1}, Summarize(rows))

	// Reconciliation reports state; it never repairs it.
	assert.True(t, registry.FindBySlotID(reg, "2").IsBound())
}

func TestReconcileIgnoresPrunableWorktrees(t *testing.T) {
	lay := layout.New("/src/my-app")
	reg := registry.CreateEmpty("my-app", 1)
	require.NoError(t, registry.Allocate(reg, "1", nil, "topic", "topic", testNow))

	rows := Reconcile(reg, nil, lay, []worktree.WorktreeInfo{
		{Path: "/src/my-app-worktrees/topic", Prunable: true},
	})
	assert.Equal(t, model.StatusStale, rows[0].Status)
}

func TestReconcileReportsCheckedOutBranch(t *testing.T) {
	lay := layout.New("/src/my-app")
	reg := registry.CreateEmpty("my-app", 2)
	require.NoError(t, registry.Allocate(reg, "1", nil, "topic", "topic", testNow))
	require.NoError(t, registry.Allocate(reg, "2", nil, "other", "other", testNow))

	rows := Reconcile(reg, nil, lay, []worktree.WorktreeInfo{
		{Path: "/src/my-app-worktrees/topic", Branch: "refs/heads/hotfix"},
		{Path: "/src/my-app-worktrees/other", HEAD: "abc123"},
	})

	assert.Equal(t, model.StatusActive, rows[0].Status)
	assert.Equal(t, "hotfix", rows[0].CheckedOut)
	assert.Equal(t, model.StatusActive, rows[1].Status)
	assert.Empty(t, rows[1].CheckedOut, "detached worktrees are not compared")
}

func TestFilterRows(t *testing.T) {
	rows := []SlotRow{
		{Slot: "1", Status: model.StatusActive},
		{Slot: "2", Status: model.StatusFree},
		{Slot: "3", Status: model.StatusFree},
	}
	free := FilterRows(rows, model.StatusFree)
	require.Len(t, free, 2)
	assert.Equal(t, model.SlotID("2"), free[0].Slot)
	assert.Empty(t, FilterRows(rows, model.StatusStale))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.bind(t, "1", 42, "feature/42-fix-login-bug", false)
	f.bind(t, "2", 0, "feature/gone", true)

	result, err := f.svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "my-app", result.RepoName)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, model.StatusActive, result.Rows[0].Status)
	assert.Equal(t, model.StatusStale, result.Rows[1].Status)
	assert.Equal(t, Summary{Active: 1, Stale: 1}, result.Summary)
	assert.Equal(t, []slots.PortVar{{Name: "WEB_PORT", Port: 3002}}, result.Rows[1].Ports)
}

func TestListWithoutSlotConfig(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.svc.Layout.ConfigDir, "slots.yaml")))

	_, err := f.svc.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
