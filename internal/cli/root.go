// Package cli implements the cobra-based CLI commands for worktree-slots.
//
// Each subcommand (init, create, delete, list, validate) is defined in its
// own file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/worktree-slots/internal/docker"
	"github.com/shinji-kodama/worktree-slots/internal/issue"
	"github.com/shinji-kodama/worktree-slots/internal/lifecycle"
	"github.com/shinji-kodama/worktree-slots/internal/logging"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/port"
	"github.com/shinji-kodama/worktree-slots/internal/worktree"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches command results to JSON on stdout. Progress
	// messages move to stderr so stdout stays parseable.
	jsonOutput bool

	// verbose enables debug logging (git and gh command lines, plans) on stderr.
	verbose bool

	// repoDir overrides the repository; default is the current directory.
	repoDir string
)

// Version, Commit, and Date are set at build time via ldflags.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action; it only provides
// help text and global flags.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "worktree-slots",
		Short: "Allocate numbered environment slots to git worktrees",
		Long: `worktree-slots binds git worktrees to a fixed pool of numbered slots.

Each slot owns a set of environment values (ports, database names, ...)
declared in <repo>-worktrees/config/slots.yaml. Creating a worktree for an
issue or branch takes the first free slot and renders the env templates
with that slot's values, so parallel checkouts never fight over ports.`,

		// We format errors ourselves (text or JSON based on --json flag).
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbose, os.Stderr)
			if jsonOutput {
				logging.Stdout = os.Stderr
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&repoDir, "repo", "", "Repository directory (default: current directory)")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewValidateCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit code; every other error exits 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error to stderr as text ("Error: ...") or, with
// --json, as {"error": {"message": ..., "detail": ...}}.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// resolveRepoRoot returns the main checkout of the repository containing
// --repo (or the current directory). Running from inside a slot worktree
// therefore operates on the same registry as running from the main checkout.
func resolveRepoRoot(git *worktree.Manager) (string, error) {
	dir := repoDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}

	root, err := git.MainRepoRoot(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("%s is not inside a git repository", dir), err)
	}
	return root, nil
}

// newService wires the lifecycle service with the real git, gh, port and
// Docker adapters. The Docker client is kept only when the daemon answers a
// ping. The returned close function releases it.
func newService(ctx context.Context) (*lifecycle.Service, func(), error) {
	git := worktree.NewManager()
	root, err := resolveRepoRoot(git)
	if err != nil {
		return nil, nil, err
	}
	logging.Debug("repository", logging.Fields{"root": root})

	svc := lifecycle.NewService(root, git, issue.NewGitHub(root), port.NewProber())

	closeFn := func() {}
	dc, err := docker.NewClient()
	if err == nil {
		closeFn, err = attachPublishers(ctx, svc, dc)
	}
	if err != nil {
		logging.Debug("docker unavailable, ports will not be attributed", logging.Fields{"error": err.Error()})
	}

	return svc, closeFn, nil
}

// dockerPublishers is the part of *docker.Client that newService uses.
type dockerPublishers interface {
	lifecycle.PortPublishers
	Ping(ctx context.Context) error
	Close() error
}

// attachPublishers keeps dc as the service's port publisher source when
// the daemon answers a ping, and returns the function that releases it.
// An unresponsive client is closed right away.
func attachPublishers(ctx context.Context, svc *lifecycle.Service, dc dockerPublishers) (func(), error) {
	if err := dc.Ping(ctx); err != nil {
		_ = dc.Close()
		return func() {}, err
	}
	svc.Publishers = dc
	return func() { _ = dc.Close() }, nil
}

// commandContext returns the command's context, falling back to
// context.Background when cobra was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
