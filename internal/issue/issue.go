package issue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// slugMaxLength caps the title part of generated branch names.
const slugMaxLength = 30

// Issue is the subset of issue metadata needed to name a branch.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

// Runner executes an external command in dir and returns its stdout.
// The default runs the real binary; tests substitute a canned response.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// GitHub fetches issues with `gh issue view`. gh resolves the repository
// from the git remote of Dir.
type GitHub struct {
	Dir string
	Run Runner
}

// NewGitHub returns a GitHub client running gh inside dir.
func NewGitHub(dir string) *GitHub {
	return &GitHub{Dir: dir, Run: execRunner}
}

// Fetch returns issue n. Any gh failure (unknown issue, missing auth, gh
// not installed) is reported as model.ErrIssueNotFound with gh's output
// attached.
func (g *GitHub) Fetch(ctx context.Context, n int) (*Issue, error) {
	out, err := g.Run(ctx, g.Dir, "gh", "issue", "view", strconv.Itoa(n), "--json", "number,title,state")
	if err != nil {
		return nil, fmt.Errorf("issue #%d: %w (%v)", n, model.ErrIssueNotFound, err)
	}

	var iss Issue
	if err := json.Unmarshal(out, &iss); err != nil {
		return nil, fmt.Errorf("decoding gh output for issue #%d: %w", n, err)
	}
	if iss.Number == 0 {
		iss.Number = n
	}
	return &iss, nil
}

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	logging.Command(dir, name, args)

	// #nosec G204: args are constructed internally
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, errors.New(strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}

var (
	slugDropRe  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
	slugDashRe  = regexp.MustCompile(`-+`)
)

// Slugify lowercases title, drops everything but letters, digits, spaces
// and dashes, joins words with single dashes and truncates to maxLength
// without leaving a trailing dash.
func Slugify(title string, maxLength int) string {
	s := strings.ToLower(title)
	s = slugDropRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugDashRe.ReplaceAllString(s, "-")
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return strings.TrimSuffix(s, "-")
}

// BranchName returns the branch created for issue n, e.g.
// "feature/42-fix-login-bug". An empty slug yields "feature/42".
func BranchName(n int, title string) string {
	slug := Slugify(title, slugMaxLength)
	if slug == "" {
		return fmt.Sprintf("feature/%d", n)
	}
	return fmt.Sprintf("feature/%d-%s", n, slug)
}
