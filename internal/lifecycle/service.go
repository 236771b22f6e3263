package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/shinji-kodama/worktree-slots/internal/issue"
	"github.com/shinji-kodama/worktree-slots/internal/layout"
	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/port"
	"github.com/shinji-kodama/worktree-slots/internal/registry"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
	"github.com/shinji-kodama/worktree-slots/internal/worktree"
)

// VCS is the subset of git operations the lifecycle needs.
// *worktree.Manager satisfies it.
type VCS interface {
	Add(repoPath, branch, worktreePath, baseBranch string) error
	Remove(repoPath, worktreePath string, force bool) error
	Prune(repoPath string) error
	List(repoPath string) ([]worktree.WorktreeInfo, error)
	BranchExists(repoPath, branch string) bool
	CreateBranch(repoPath, branch, base string) error
	MainBranch(repoPath string) string
	IsMerged(repoPath, branch, base string) (bool, error)
	DeleteBranch(repoPath, branch string, force bool) error
	HasUncommittedChanges(path string) (bool, error)
	Stash(path, message string) error
	RepoName(repoPath string) string
}

// IssueTracker resolves issue numbers to titles. *issue.GitHub satisfies it.
type IssueTracker interface {
	Fetch(ctx context.Context, n int) (*issue.Issue, error)
}

// PortPublishers maps host ports to the containers publishing them.
// *docker.Client satisfies it.
type PortPublishers interface {
	PublishedPorts(ctx context.Context) (map[int]string, error)
}

// Service runs the slot lifecycle for one repository.
type Service struct {
	// Layout locates the registry, the slot config and the worktrees.
	Layout layout.Layout

	Git    VCS
	Issues IssueTracker

	// Ports probes whether a port is taken. Growth also uses it to pick
	// ports for new slots.
	Ports port.Checker

	// Publishers is optional. When set, busy ports are attributed to the
	// container that publishes them.
	Publishers PortPublishers

	// Now returns the binding timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewService wires a Service for the repository at repoRoot.
func NewService(repoRoot string, git VCS, issues IssueTracker, ports port.Checker) *Service {
	return &Service{
		Layout: layout.New(repoRoot),
		Git:    git,
		Issues: issues,
		Ports:  ports,
		Now:    time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// loadRegistry reads the registry of the repository.
func (s *Service) loadRegistry() (*model.WorktreeRegistry, error) {
	return registry.Read(s.Layout.WorktreesDir)
}

// loadSlots reads the slot config. A missing file is reported as an error
// wrapping model.ErrNotFound.
func (s *Service) loadSlots() (*slots.SlotsConfig, error) {
	cfg, err := slots.Read(s.Layout.ConfigDir)
	if err != nil {
		return nil, err
	}
	logging.Debug("slot config loaded", logging.Fields{"dir": s.Layout.ConfigDir, "slots": len(cfg.Slots)})
	return cfg, nil
}

// portWarnings probes every port of a slot and describes the busy ones.
// Docker attribution is best effort: any daemon problem only drops the
// "(published by ...)" suffix.
func (s *Service) portWarnings(ctx context.Context, sc *slots.SlotConfig) []string {
	if s.Ports == nil || sc == nil {
		return nil
	}

	var busy []slots.PortVar
	for _, p := range sc.Ports() {
		if s.Ports.InUse(p.Port) {
			busy = append(busy, p)
		}
	}
	if len(busy) == 0 {
		return nil
	}

	var owners map[int]string
	if s.Publishers != nil {
		var err error
		owners, err = s.Publishers.PublishedPorts(ctx)
		if err != nil {
			logging.Debug("docker port attribution unavailable", logging.Fields{"error": err.Error()})
		}
	}

	warnings := make([]string, 0, len(busy))
	for _, p := range busy {
		w := fmt.Sprintf("Port %d (%s) appears to be in use", p.Port, p.Name)
		if name, ok := owners[p.Port]; ok {
			w += fmt.Sprintf(" (published by container %s)", name)
		}
		warnings = append(warnings, w)
	}
	return warnings
}
