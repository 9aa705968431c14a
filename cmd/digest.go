package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/digest"
	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/pkg/summarize"
	"github.com/grovetools/daily/tui/theme"
)

// NewDigestCmd creates the `digest` command.
func NewDigestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Consolidate a date's sessions into its daily digest",
		Long: `Folds every session archived under a date into that date's digest and
removes the consumed session files. Running it again for the same date is
safe: already-digested sessions are never re-summarized, and a run that
died between writing the digest and cleaning up is finished on the next
attempt.

Dates are YYYY-MM-DD, or the shorthands: today, yesterday, or yest.

Examples:
  # Consolidate today's sessions
  daily digest

  # Catch up yesterday in the background
  daily digest --date yesterday --background

  # Re-synthesize a digest from whatever is on disk
  daily digest --date 2026-08-20 --force
`,
		RunE: runDigestE,
	}

	cmd.Flags().String("date", "", "Date to consolidate: today, yesterday, or YYYY-MM-DD (default: today)")
	cmd.Flags().Bool("background", false, "Spawn a detached worker and return immediately")
	cmd.Flags().Bool("force", false, "Re-synthesize even when nothing new was archived")
	cmd.Flags().String("job-id", "", "Job record to run under (set by the registry on spawned workers)")

	return cmd
}

func runDigestE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)

	dateFlag, _ := cmd.Flags().GetString("date")
	background, _ := cmd.Flags().GetBool("background")
	force, _ := cmd.Flags().GetBool("force")
	jobID, _ := cmd.Flags().GetString("job-id")

	date, err := resolveDate(dateFlag)
	if err != nil {
		return err
	}

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	// Worker mode: narrate into the job log and settle the record the
	// registry created for us.
	if jobID != "" {
		registry, err := jobs.NewRegistry(cfg)
		if err != nil {
			return err
		}
		wlog := logging.NewWorkerLog("digest")
		wlog.Step("Consolidating %s", date)

		res, err := digestOnce(cmd.Context(), cfg, date, force)
		if err != nil {
			wlog.Fail(err, "digest failed")
			if ferr := registry.Fail(jobID, err.Error()); ferr != nil {
				logger.WithError(ferr).Warn("Could not record job failure")
			}
			return err
		}
		switch res.Outcome {
		case digest.OutcomeNothing:
			wlog.Done("nothing to digest")
		case digest.OutcomeRecovered:
			wlog.Done("recovered an interrupted run (%d sessions reclaimed)", len(res.Consumed))
		default:
			wlog.Done("digested %d sessions", len(res.Consumed))
		}
		return registry.Complete(jobID)
	}

	if background {
		registry, err := jobs.NewRegistry(cfg)
		if err != nil {
			return err
		}

		workerArgs := []string{"digest", "--date", date}
		if force {
			workerArgs = append(workerArgs, "--force")
		}
		job, err := registry.Create(jobs.CreateRequest{
			TaskName:   "digest-" + date,
			Type:       jobs.TypeManual,
			WorkerArgs: workerArgs,
		})
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
				fmt.Printf("%s A digest for %s is already running.\n", theme.IconInfo, date)
				fmt.Printf("  Watch it with: daily jobs watch\n")
				return nil
			}
			return err
		}

		fmt.Printf("%s Consolidating %s in the background (job %s)\n", theme.IconSuccess, date, job.ID)
		fmt.Printf("  Follow it with: daily jobs log %s --follow\n", job.ID)
		return nil
	}

	// Foreground runs hold the terminal, so they skip the job registry;
	// the outcome lands on stdout instead of a log file.
	sp := cli.NewSpinner("Consolidating " + date)
	sp.Start()

	res, err := digestOnce(cmd.Context(), cfg, date, force)
	if err != nil {
		sp.Stop(false, "failed")
		return err
	}

	switch res.Outcome {
	case digest.OutcomeNothing:
		sp.Stop(true, "nothing to digest")
	case digest.OutcomeRecovered:
		sp.Stop(true, fmt.Sprintf("recovered an interrupted run (%d sessions reclaimed)", len(res.Consumed)))
	default:
		sp.Stop(true, fmt.Sprintf("digested %d sessions", len(res.Consumed)))
		fmt.Printf("  %s daily show %s\n", theme.IconArrow, res.Date)
	}
	return nil
}

// digestOnce runs one consolidation in this process.
func digestOnce(ctx context.Context, cfg *config.Config, date string, force bool) (*digest.Result, error) {
	engine, err := summarize.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	store := archive.NewStore(cfg)
	return digest.NewConsolidator(store, engine).Run(ctx, date, force)
}

// resolveDate turns a date argument into concrete YYYY-MM-DD form. Empty
// means today; "yesterday" and "yest" mean the prior calendar day.
func resolveDate(value string) (string, error) {
	now := time.Now()
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return now.Format("2006-01-02"), nil
	case "yesterday", "yest":
		return now.AddDate(0, 0, -1).Format("2006-01-02"), nil
	}
	if err := archive.ValidateDate(value); err != nil {
		return "", err
	}
	return value, nil
}
