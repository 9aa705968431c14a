package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/pkg/summarize"
	"github.com/grovetools/daily/pkg/trigger"
	"github.com/grovetools/daily/tui/theme"
	"github.com/grovetools/daily/util/sanitize"
)

// NewSummarizeCmd creates the `summarize` command.
func NewSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Distill a session transcript into the daily archive",
		Long: `Summarizes one transcript into a session archive under today's date,
then runs skill extraction over any reusable patterns the summary flagged.

By default the summary runs right here in the foreground. With --background
a detached worker does the work instead and the command returns
immediately; hooks use that mode so the editor never waits on a model call.

Examples:
  # Summarize a transcript and wait for the result
  daily summarize --transcript ~/.claude/projects/-work-api/b2c4ae01.jsonl

  # Name the task yourself and hand it to a background worker
  daily summarize --transcript session.jsonl --task-name fix-login-bug --background

  # Follow the worker afterwards
  daily jobs log <job-id> --follow
`,
		RunE: runSummarizeE,
	}

	cmd.Flags().String("transcript", "", "Path to the session transcript (JSONL)")
	cmd.Flags().String("task-name", "", "Task name for the archived session (default: derived from the transcript path)")
	cmd.Flags().Bool("background", false, "Spawn a detached worker and return immediately")
	cmd.Flags().String("job-id", "", "Job record to run under (set by the registry on spawned workers)")
	cmd.MarkFlagRequired("transcript")

	return cmd
}

func runSummarizeE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)

	transcript, _ := cmd.Flags().GetString("transcript")
	taskName, _ := cmd.Flags().GetString("task-name")
	background, _ := cmd.Flags().GetBool("background")
	jobID, _ := cmd.Flags().GetString("job-id")

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := jobs.NewRegistry(cfg)
	if err != nil {
		return err
	}

	if taskName == "" {
		taskName = trigger.TaskNameFor(transcript)
	}

	// Worker mode: the registry spawned this process against an existing
	// job record. Narrate into the job log, do the work, and settle the
	// record either way.
	if jobID != "" {
		wlog := logging.NewWorkerLog("summarize")
		wlog.Step("Summarizing '%s'", taskName)
		wlog.Detail("transcript: %s", transcript)

		path, err := summarizeOnce(cmd.Context(), cfg, logger, transcript, taskName)
		if err != nil {
			wlog.Fail(err, "summarize failed")
			if ferr := registry.Fail(jobID, err.Error()); ferr != nil {
				logger.WithError(ferr).Warn("Could not record job failure")
			}
			return err
		}
		wlog.Done("archived %s", path)
		return registry.Complete(jobID)
	}

	if background {
		job, err := registry.Create(jobs.CreateRequest{
			TaskName:       taskName,
			Type:           jobs.TypeManual,
			TranscriptPath: transcript,
			WorkerArgs:     []string{"summarize", "--transcript", transcript, "--task-name", taskName},
		})
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
				fmt.Printf("%s A summarize job for '%s' is already running today.\n", theme.IconInfo, taskName)
				fmt.Printf("  Watch it with: daily jobs watch\n")
				return nil
			}
			return err
		}

		fmt.Printf("%s Summarizing '%s' in the background (job %s)\n", theme.IconSuccess, job.TaskName, job.ID)
		fmt.Printf("  Follow it with: daily jobs log %s --follow\n", job.ID)
		return nil
	}

	// Foreground: record a manual job inline so the run shows up in
	// `jobs list` alongside background workers.
	job, err := registry.Track(jobs.CreateRequest{
		TaskName:       taskName,
		Type:           jobs.TypeManual,
		TranscriptPath: transcript,
	})
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
			fmt.Printf("%s A summarize job for '%s' is already running today.\n", theme.IconInfo, taskName)
			fmt.Printf("  Watch it with: daily jobs watch\n")
			return nil
		}
		return err
	}

	sp := cli.NewSpinner(fmt.Sprintf("Summarizing '%s'", taskName))
	sp.Start()

	path, err := summarizeOnce(cmd.Context(), cfg, logger, transcript, taskName)
	if err != nil {
		sp.Stop(false, "failed")
		if ferr := registry.Fail(job.ID, err.Error()); ferr != nil {
			logger.WithError(ferr).Warn("Could not record job failure")
		}
		return err
	}
	sp.Stop(true, "archived")
	fmt.Printf("  %s %s\n", theme.IconArrow, path)

	return registry.Complete(job.ID)
}

// summarizeOnce runs the full pipeline in this process: transcript to
// session archive, then skill extraction over the hints the summary
// produced. Extraction failures are logged, not fatal; the session is
// already archived by then.
func summarizeOnce(ctx context.Context, cfg *config.Config, logger *logrus.Entry, transcript, taskName string) (string, error) {
	engine, err := summarize.NewEngine(cfg)
	if err != nil {
		return "", err
	}
	store := archive.NewStore(cfg)

	res, err := engine.SummarizeSession(ctx, transcript, taskName, "")
	if err != nil {
		return "", err
	}

	sess := res.Session
	name := sanitize.ForFilename(taskName)
	path, err := store.WriteSession(sess.Date, name, sess)
	if err != nil {
		return "", err
	}

	origin := sess.Date + "/" + name
	for _, hint := range res.SkillHints {
		p, err := engine.ExtractPendingSkill(ctx, archive.KindSkill, sess.Markdown(), hint, origin)
		if err != nil {
			logger.WithError(err).WithField("hint", hint).Warn("Skill extraction failed")
			continue
		}
		if p == nil {
			continue
		}
		if _, err := store.WritePendingSkill(sess.Date, p); err != nil {
			logger.WithError(err).WithField("skill", p.Name).Warn("Could not park extracted skill")
		}
	}

	return path, nil
}
