// Package worktree provides the git operations slot lifecycle commands need.
//
// All git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the user sees in their terminal
//   - Requires Git >= 2.15 (when worktree support matured)
//
// The Manager type covers branches (exists, create, merged, delete),
// worktrees (add, list, remove, prune), working-copy state (status, stash)
// and repository identity (root, main branch, remote-derived name).
package worktree
