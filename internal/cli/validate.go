package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/worktree-slots/internal/lifecycle"
	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// NewValidateCommand creates the "validate" cobra command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the slot config and registry for problems",
		Long: `Check that every slot declares the same variables, that slot ids are
unique, that no issue or branch is bound to two slots, and that the slot
config and registry declare the same slots.

Exits with status 1 when a problem is found.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd)
		},
	}
}

func runValidate(cmd *cobra.Command) error {
	svc, closeFn, err := newService(commandContext(cmd))
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Validate(commandContext(cmd))
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		printValidateResultText(cmd.OutOrStdout(), result)
	}

	if !result.OK() {
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("validation found %d problem(s)", result.ProblemCount()))
	}
	return nil
}

func printValidateResultText(w io.Writer, r *lifecycle.ValidateResult) {
	for _, p := range r.TemplateWarnings {
		fmt.Fprintf(w, "%s %s\n", warningMark, p)
	}
	if r.OK() {
		fmt.Fprintf(w, "%s is valid\n", r.ConfigPath)
		return
	}
	for _, p := range r.ConfigProblems {
		fmt.Fprintf(w, "config:   %s\n", p)
	}
	for _, p := range r.RegistryProblems {
		fmt.Fprintf(w, "registry: %s\n", p)
	}
	for _, p := range r.TemplateProblems {
		fmt.Fprintf(w, "template: %s\n", p)
	}
}
