package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/worktree-slots/internal/envtmpl"
	"github.com/shinji-kodama/worktree-slots/internal/lifecycle"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

// initFlags holds the flag values for the init command.
type initFlags struct {
	slots    int
	format   string
	ports    map[string]int
	vars     map[string]string
	envFiles []string
	slotVars []string
	copyVars []string
	autoGrow bool
	force    bool
}

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the slot config, env templates and registry",
		Long: `Create <repo>-worktrees/config/ next to the repository with:

  slots.<ext>         one entry per slot; port variables get base+slot
  slots.schema.json   JSON schema for editor validation
  <env>.template      one per env file, with slot variables as {{NAME}}
                      and copied variables as {{COPY:NAME}}

and an empty .worktree-registry.json.

Without --env-file every .env* file of the repository is templated.

Examples:
  worktree-slots init --slots 3 --port WEB_PORT=3000 --port DB_PORT=5432
  worktree-slots init --format toml --var DB_HOST=localhost --copy-var API_KEY
  worktree-slots init --force --format json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.slots, "slots", 3, "Number of slots")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "Config format: yaml, json, jsonc, toml")
	cmd.Flags().StringToIntVar(&flags.ports, "port", nil, "Port variable and base, e.g. WEB_PORT=3000 (repeatable)")
	cmd.Flags().StringToStringVar(&flags.vars, "var", nil, "Variable with the same value in every slot (repeatable)")
	cmd.Flags().StringSliceVar(&flags.envFiles, "env-file", nil, "Env file to turn into a template (repeatable)")
	cmd.Flags().StringSliceVar(&flags.slotVars, "slot-var", nil, "Variable templated as {{NAME}} (default: all slot variables)")
	cmd.Flags().StringSliceVar(&flags.copyVars, "copy-var", nil, "Variable templated as {{COPY:NAME}} (repeatable)")
	cmd.Flags().BoolVar(&flags.autoGrow, "auto-grow", false, "Let create add slots when all are in use")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing config and registry")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	format, err := slots.ParseFormat(flags.format)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid --format", err)
	}

	svc, closeFn, err := newService(commandContext(cmd))
	if err != nil {
		return err
	}
	defer closeFn()

	envFiles := flags.envFiles
	if len(envFiles) == 0 {
		found, err := envtmpl.RootEnvFiles(svc.Layout.RepoRoot, nil)
		if err != nil {
			return err
		}
		for _, f := range found {
			envFiles = append(envFiles, filepath.Base(f))
		}
	}

	result, err := svc.Init(commandContext(cmd), lifecycle.InitOptions{
		Slots:      flags.slots,
		Format:     format,
		PortVars:   flags.ports,
		StaticVars: flags.vars,
		EnvFiles:   envFiles,
		SlotVars:   flags.slotVars,
		CopyVars:   flags.copyVars,
		AutoGrow:   flags.autoGrow,
		Force:      flags.force,
	})
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printInitResultText(cmd.OutOrStdout(), svc.Layout.RelativePath(svc.Layout.ConfigDir), result)
	return nil
}

func printInitResultText(w io.Writer, configDir string, r *lifecycle.InitResult) {
	fmt.Fprintf(w, "Initialized %d slots for %s in %s\n", len(r.Slots), r.RepoName, configDir)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Review %s and adjust the slot values\n", filepath.Join(configDir, filepath.Base(r.ConfigPath)))
	if len(r.Templates) > 0 {
		fmt.Fprintf(w, "  2. Review %s\n", filepath.Join(configDir, "*"+envtmpl.TemplateSuffix))
	} else {
		fmt.Fprintf(w, "  2. Add env templates to %s (NAME={{NAME}} lines)\n", configDir)
	}
	fmt.Fprintln(w, "  3. Create a worktree: worktree-slots create <issue|branch>")
}
