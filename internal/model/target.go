package model

import (
	"fmt"
	"strconv"
	"strings"
)

// TargetKind distinguishes the two ways a user can address a unit of work.
type TargetKind int

const (
	// TargetIssue addresses work by issue-tracker number.
	TargetIssue TargetKind = iota

	// TargetBranch addresses work by git branch name.
	TargetBranch
)

// Target is the parsed form of the positional argument given to `create`
// and `delete`. Exactly one of Issue or Branch is meaningful, selected by Kind.
//
// Parsing happens once at the CLI boundary (ParseTarget) so that the
// lifecycle code never has to re-inspect raw strings.
type Target struct {
	Kind   TargetKind
	Issue  int
	Branch string
}

// IssueTarget constructs a Target addressing issue n.
func IssueTarget(n int) Target {
	return Target{Kind: TargetIssue, Issue: n}
}

// BranchTarget constructs a Target addressing the named branch.
func BranchTarget(name string) Target {
	return Target{Kind: TargetBranch, Branch: name}
}

// IsIssue reports whether the target addresses an issue.
func (t Target) IsIssue() bool {
	return t.Kind == TargetIssue
}

// String renders the target the way the user would type it.
func (t Target) String() string {
	if t.IsIssue() {
		return "#" + strconv.Itoa(t.Issue)
	}
	return t.Branch
}

// ParseTarget converts a command-line argument into a Target.
// An argument made only of digits is an issue number; anything else is a
// branch name.
func ParseTarget(arg string) (Target, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Target{}, fmt.Errorf("target must be an issue number or a branch name")
	}

	if SlotID(arg).IsNumeric() {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return Target{}, fmt.Errorf("invalid issue number %q", arg)
		}
		return IssueTarget(n), nil
	}

	return BranchTarget(arg), nil
}
