package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/worktree-slots/internal/lifecycle"
	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// deleteFlags holds the flag values for the delete command.
type deleteFlags struct {
	dryRun       bool // --dry-run: run the checks only
	stash        bool // --stash: stash uncommitted changes first
	force        bool // --force: discard changes, delete unmerged branches
	deleteBranch bool // --delete-branch: delete the branch too
}

// NewDeleteCommand creates the "delete" cobra command (alias "remove").
func NewDeleteCommand() *cobra.Command {
	flags := &deleteFlags{}

	cmd := &cobra.Command{
		Use:     "delete <issue-number|branch-name>",
		Aliases: []string{"remove", "rm"},
		Short:   "Remove a worktree and free its slot",
		Long: `Remove the worktree bound to an issue or branch and free its slot.

A worktree with uncommitted changes is only removed with --stash (changes
are saved with "git stash", labelled "worktree-remove: <branch>") or
--force (changes are discarded). --delete-branch also deletes the branch;
unmerged branches additionally need --force.

Registry entries whose worktree directory is already gone are freed
without error.

Examples:
  worktree-slots delete 42
  worktree-slots delete feature/42-fix-login-bug --stash
  worktree-slots remove 42 --delete-branch
  worktree-slots delete 42 --dry-run`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be removed without changing anything")
	cmd.Flags().BoolVar(&flags.stash, "stash", false, "Stash uncommitted changes before removing")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Discard uncommitted changes and delete unmerged branches")
	cmd.Flags().BoolVar(&flags.deleteBranch, "delete-branch", false, "Also delete the git branch")

	return cmd
}

func runDelete(cmd *cobra.Command, arg string, flags *deleteFlags) error {
	target, err := model.ParseTarget(arg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid target", err)
	}

	svc, closeFn, err := newService(commandContext(cmd))
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Remove(commandContext(cmd), target, lifecycle.RemoveOptions{
		DryRun:       flags.dryRun,
		Force:        flags.force,
		Stash:        flags.stash,
		DeleteBranch: flags.deleteBranch,
	})
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printDeleteResultText(cmd.OutOrStdout(), result, flags.deleteBranch)
	return nil
}

func printDeleteResultText(w io.Writer, r *lifecycle.RemoveResult, deleteBranch bool) {
	if r.DryRun {
		fmt.Fprintln(w, "[DRY RUN] Would remove worktree and free slot:")
	} else {
		fmt.Fprintln(w, "Worktree removed:")
	}
	fmt.Fprintf(w, "  Slot:   %s\n", r.Slot)
	fmt.Fprintf(w, "  Branch: %s\n", r.Branch)
	fmt.Fprintf(w, "  Path:   %s\n", r.RelativePath)

	if r.Stale {
		fmt.Fprintln(w, "  (worktree directory was already gone)")
	}
	if r.Stashed {
		fmt.Fprintln(w, "\nChanges stashed. Recover with: git stash list")
	}
	switch {
	case r.BranchDeleted:
		fmt.Fprintf(w, "Branch %s deleted\n", r.Branch)
	case r.DryRun && deleteBranch:
		fmt.Fprintf(w, "[DRY RUN] Would delete branch: %s\n", r.Branch)
	}
}
