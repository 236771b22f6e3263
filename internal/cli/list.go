package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/worktree-slots/internal/lifecycle"
	"github.com/shinji-kodama/worktree-slots/internal/model"
	"github.com/shinji-kodama/worktree-slots/internal/slots"
)

var (
	activeColor = color.New(color.FgGreen)
	freeColor   = color.New(color.Faint)
	staleColor  = color.New(color.FgYellow)

	warningMark = color.New(color.FgYellow).Sprint("⚠")
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	status string // --status: show only slots with this status
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List slots and the worktrees bound to them",
		Long: `List every slot with its binding and reconciled status.

  active  bound, and git knows the worktree
  free    not bound
  stale   bound, but the worktree directory is gone

Stale slots are freed with "worktree-slots delete <issue|branch>".

Examples:
  worktree-slots list
  worktree-slots list --status stale
  worktree-slots list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.status, "status", "", "Show only slots with this status (active, free, stale)")

	return cmd
}

func runList(cmd *cobra.Command, flags *listFlags) error {
	var status model.SlotStatus
	if flags.status != "" {
		var err error
		if status, err = model.ParseSlotStatus(flags.status); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --status", err)
		}
	}

	svc, closeFn, err := newService(commandContext(cmd))
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.List(commandContext(cmd))
	if err != nil {
		return err
	}
	// The summary keeps counting every slot.
	if status != "" {
		result.Rows = lifecycle.FilterRows(result.Rows, status)
	}

	if IsJSONOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printListResultText(cmd.OutOrStdout(), result)
	return nil
}

// printListResultText renders the slot table followed by the summary:
//
//	SLOT  STATUS  ISSUE  BRANCH                    WORKTREE          PORTS
//	1     active  #42    feature/42-fix-login-bug  42-fix-login-bug  3001,5433
//	2     free    -      -                         -                 3002,5434
func printListResultText(w io.Writer, result *lifecycle.ListResult) {
	if len(result.Rows) == 0 {
		if result.Summary == (lifecycle.Summary{}) {
			fmt.Fprintln(w, "No slots defined.")
			return
		}
		fmt.Fprintln(w, "No matching slots.")
	} else {
		fmt.Fprintln(w, renderSlotTable(result.Rows))
	}
	fmt.Fprintln(w, FormatSummary(result.Summary))

	for _, r := range result.Rows {
		if r.CheckedOut != "" {
			fmt.Fprintf(w, "\n%s Slot %s: worktree %s has %s checked out, registry expects %s\n",
				warningMark, r.Slot, r.Worktree, r.CheckedOut, r.Branch)
		}
	}

	if result.Summary.Stale > 0 {
		fmt.Fprintf(w, "\n%s Stale slots point at missing worktrees. Free them with: worktree-slots delete <issue|branch>\n", warningMark)
	}
}

func renderSlotTable(rows []lifecycle.SlotRow) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("SLOT", "STATUS", "ISSUE", "BRANCH", "WORKTREE", "PORTS").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})

	for _, r := range rows {
		issue := "-"
		if r.Issue != nil {
			issue = "#" + strconv.Itoa(*r.Issue)
		}
		t.Row(
			r.Slot.String(),
			colorStatus(r.Status),
			issue,
			orDash(r.Branch),
			orDash(r.Worktree),
			FormatPortsList(r.Ports),
		)
	}
	return t.String()
}

func colorStatus(s model.SlotStatus) string {
	switch s {
	case model.StatusActive:
		return activeColor.Sprint(s)
	case model.StatusStale:
		return staleColor.Sprint(s)
	default:
		return freeColor.Sprint(s)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatSummary renders "Summary: A active, F free", appending the stale
// count only when there is one.
func FormatSummary(s lifecycle.Summary) string {
	line := fmt.Sprintf("Summary: %d active, %d free", s.Active, s.Free)
	if s.Stale > 0 {
		line += fmt.Sprintf(", %d stale", s.Stale)
	}
	return line
}

// FormatPortsList converts a slot's port variables into a comma-separated
// string of ports, sorted numerically. Returns "-" if there are none.
//
// Example:
//
//	[{WEB_PORT 3001} {DB_PORT 5433}] → "3001,5433"
//	[]                               → "-"
func FormatPortsList(ports []slots.PortVar) string {
	if len(ports) == 0 {
		return "-"
	}

	// Sort numerically; lexicographic order would put "15432" before "3000".
	nums := make([]int, 0, len(ports))
	for _, p := range ports {
		nums = append(nums, p.Port)
	}
	sort.Ints(nums)

	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}
