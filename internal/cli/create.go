package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/worktree-slots/internal/lifecycle"
	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// createFlags holds the flag values for the create command.
type createFlags struct {
	dryRun bool // --dry-run: show the plan without changing anything
	grow   bool // --grow: add a slot when all slots are in use
}

// NewCreateCommand creates the "create" cobra command.
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <issue-number|branch-name>",
		Short: "Create a worktree in the first free slot",
		Long: `Create a git worktree for an issue or branch and bind it to the first free slot.

A numeric argument is a GitHub issue: its title (fetched with gh) names the
branch feature/<number>-<slug>. Anything else is used as the branch name.
Missing branches are created from main (or master).

The slot's env templates from config/*.template are rendered into the new
worktree. Ports that are already in use are reported but do not stop the
command.

Examples:
  worktree-slots create 42
  worktree-slots create fix/typo-in-readme
  worktree-slots create 42 --dry-run
  worktree-slots create 43 --grow`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show what would be created without changing anything")
	cmd.Flags().BoolVar(&flags.grow, "grow", false, "Add a new slot when every slot is in use")

	return cmd
}

func runCreate(cmd *cobra.Command, arg string, flags *createFlags) error {
	target, err := model.ParseTarget(arg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid target", err)
	}

	svc, closeFn, err := newService(commandContext(cmd))
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Create(commandContext(cmd), target, lifecycle.CreateOptions{
		DryRun:   flags.dryRun,
		AutoGrow: flags.grow,
	})
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printCreateResultText(cmd.OutOrStdout(), result)
	return nil
}

// printCreateResultText prints the created worktree, its warnings and
// the next steps.
func printCreateResultText(w io.Writer, r *lifecycle.CreateResult) {
	if r.DryRun {
		fmt.Fprintln(w, "[DRY RUN] Would create worktree:")
	} else {
		fmt.Fprintln(w, "Worktree created:")
	}
	fmt.Fprintf(w, "  Slot:   %s", r.Slot)
	if r.Grown {
		fmt.Fprint(w, " (new)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Branch: %s\n", r.Branch)
	fmt.Fprintf(w, "  Path:   %s\n", r.RelativePath)

	printWarnings(w, "Config warnings", r.ConfigWarnings)
	printWarnings(w, "Port warnings", r.PortWarnings)
	printWarnings(w, "Template warnings", r.TemplateWarnings)

	if !r.DryRun {
		fmt.Fprintln(w, "\nNext steps:")
		fmt.Fprintf(w, "  cd %s\n", r.RelativePath)
	}
}

func printWarnings(w io.Writer, title string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s %s:\n", warningMark, title)
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}
