package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/tui"
	"github.com/grovetools/daily/tui/components/jobwatch"
	"github.com/grovetools/daily/tui/components/table"
	"github.com/grovetools/daily/tui/theme"
)

// NewJobsCmd creates the `jobs` command.
func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage background workers",
		Long: `Background summarize and digest workers leave a record and a log behind.
These commands list them, stream their output, stop them, and prune old
records.

Examples:
  # What ran recently
  daily jobs list

  # Stream a worker's output until it finishes
  daily jobs log 20260825-143055-fix-login-a1b2c3 --follow

  # Live view of all jobs
  daily jobs watch
`,
	}

	cmd.AddCommand(newJobsListCmd())
	cmd.AddCommand(newJobsLogCmd())
	cmd.AddCommand(newJobsKillCmd())
	cmd.AddCommand(newJobsCleanupCmd())
	cmd.AddCommand(newJobsWatchCmd())

	return cmd
}

// openRegistry loads configuration and opens the job registry.
func openRegistry(cmd *cobra.Command) (*jobs.Registry, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return jobs.NewRegistry(cfg)
}

func newJobsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent and running jobs",
		Long: `Shows running jobs plus anything that finished in the last 24 hours.
Jobs whose worker process vanished without reporting back are marked
failed as a side effect of listing them.

Examples:
  # Recent activity
  daily jobs list

  # Every record still on disk
  daily jobs list --all
`,
		RunE: runJobsListE,
	}
	cmd.Flags().Bool("all", false, "Include every job record, not just recent ones")
	return cmd
}

func runJobsListE(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry(cmd)
	if err != nil {
		return err
	}

	filter := jobs.FilterRecent
	if all, _ := cmd.Flags().GetBool("all"); all {
		filter = jobs.FilterAll
	}

	list, err := registry.List(filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		if filter == jobs.FilterAll {
			fmt.Println("No jobs on record.")
		} else {
			fmt.Println("No recent jobs. Use --all to include older ones.")
		}
		return nil
	}

	t := table.New("ID", "STATUS", "TASK", "ELAPSED")
	for _, j := range list {
		t.Row(j.ID, statusCell(j), j.TaskName, j.ElapsedHuman())
	}
	fmt.Println(t)
	return nil
}

// statusCell renders the colored status column. Killed jobs are failed
// records distinguished by their recorded reason.
func statusCell(j *jobs.Job) string {
	t := theme.DefaultTheme
	switch j.Status {
	case jobs.StatusRunning:
		return t.Info.Render(theme.IconStatusRunning + " " + j.Status.Display())
	case jobs.StatusCompleted:
		return t.Success.Render(theme.IconStatusCompleted + " " + j.Status.Display())
	case jobs.StatusFailed:
		if j.Error == "killed" {
			return t.Warning.Render(theme.IconStatusKilled + " Killed")
		}
		return t.Error.Render(theme.IconStatusFailed + " " + j.Status.Display())
	default:
		return j.Status.Display()
	}
}

func newJobsLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log <job-id>",
		Short: "Print a job's worker log",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobsLogE,
	}
	cmd.Flags().BoolP("follow", "f", false, "Stream the log until the job finishes")
	return cmd
}

func runJobsLogE(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry(cmd)
	if err != nil {
		return err
	}

	if follow, _ := cmd.Flags().GetBool("follow"); follow {
		// Follow replays the log from the start, so no separate dump first.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := registry.Follow(ctx, args[0], os.Stdout); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	content, err := registry.ReadLog(args[0], 0)
	if err != nil {
		return err
	}
	if content == "" {
		fmt.Println("(log is empty)")
		return nil
	}
	fmt.Print(content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Println()
	}
	return nil
}

func newJobsKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <job-id>",
		Short: "Terminate a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry(cmd)
			if err != nil {
				return err
			}
			job, err := registry.Kill(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s Killed job %s ('%s')\n", theme.IconSuccess, job.ID, job.TaskName)
			return nil
		},
	}
}

func newJobsCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old finished job records",
		Long: `Deletes the records, logs, and guard files of finished jobs started
before the cutoff. Running jobs are never touched.

Examples:
  # See what a cleanup would remove
  daily jobs cleanup --dry-run

  # Prune aggressively
  daily jobs cleanup --days 1
`,
		RunE: runJobsCleanupE,
	}
	cmd.Flags().Int("days", 7, "Remove finished jobs started more than this many days ago")
	cmd.Flags().Bool("dry-run", false, "List what would be removed without removing anything")
	return cmd
}

func runJobsCleanupE(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry(cmd)
	if err != nil {
		return err
	}

	days, _ := cmd.Flags().GetInt("days")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	removed, err := registry.Cleanup(days, dryRun)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Printf("Nothing to clean up older than %d days.\n", days)
		return nil
	}

	for _, j := range removed {
		fmt.Printf("  %s %s ('%s', %s)\n", theme.IconBullet, j.ID, j.TaskName, j.Status.Display())
	}
	if dryRun {
		fmt.Printf("%s Would remove %d job records older than %d days.\n", theme.IconInfo, len(removed), days)
	} else {
		fmt.Printf("%s Removed %d job records older than %d days.\n", theme.IconSuccess, len(removed), days)
	}
	return nil
}

func newJobsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch jobs live in an interactive view",
		Long: `Opens a full-screen view that refreshes the job list as workers run,
with the selected job's log in a side pane. Press q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry(cmd)
			if err != nil {
				return err
			}

			tui.InitializeTUI()
			p := tea.NewProgram(jobwatch.New(registry), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
