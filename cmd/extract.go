package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/summarize"
	"github.com/grovetools/daily/tui/theme"
	"github.com/grovetools/daily/util/sanitize"
)

// NewExtractCmd creates the `extract` command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Pull a reusable skill or command out of an archived session",
		Long: `Runs the extraction prompt against one archived session and parks the
result in the review queue, the same place digest suggestions land. Use
--output to skip the queue and write the installable document directly.

Examples:
  # Extract a skill from today's latest session
  daily extract skill

  # Extract a command from a specific session
  daily extract command --date 2026-08-20 --session fix-login

  # Write the skill straight into a project instead of the queue
  daily extract skill --output .claude/skills/deploy-checklist
`,
	}

	cmd.AddCommand(newExtractKindCmd(archive.KindSkill), newExtractKindCmd(archive.KindCommand))
	return cmd
}

func newExtractKindCmd(kind string) *cobra.Command {
	article := "a skill"
	if kind == archive.KindCommand {
		article = "a command"
	}

	cmd := &cobra.Command{
		Use:   kind,
		Short: "Extract " + article + " from a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractE(cmd, kind)
		},
	}

	cmd.Flags().String("date", "", "Date of the session: today, yesterday, or YYYY-MM-DD (default: today)")
	cmd.Flags().String("session", "", "Session name (default: the date's latest session)")
	cmd.Flags().StringP("output", "o", "", "Write the installable document here instead of the review queue")

	return cmd
}

func runExtractE(cmd *cobra.Command, kind string) error {
	logger := cli.GetLogger(cmd)

	dateFlag, _ := cmd.Flags().GetString("date")
	sessionName, _ := cmd.Flags().GetString("session")
	output, _ := cmd.Flags().GetString("output")

	date, err := resolveDate(dateFlag)
	if err != nil {
		return err
	}

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	store := archive.NewStore(cfg)

	var sf *archive.SessionFile
	if sessionName != "" {
		sf, err = store.ReadSession(date, sessionName)
	} else {
		var sessions []*archive.SessionFile
		sessions, err = store.ReadSessions(date)
		if err == nil {
			if len(sessions) == 0 {
				return errors.New(errors.ErrCodeSessionNotFound,
					fmt.Sprintf("no sessions archived for %s", date)).
					WithDetail("date", date)
			}
			sf = sessions[len(sessions)-1]
		}
	}
	if err != nil {
		return err
	}

	engine, err := summarize.NewEngine(cfg)
	if err != nil {
		return err
	}

	sp := cli.NewSpinner(fmt.Sprintf("Extracting a %s from '%s'", kind, sf.Name))
	sp.Start()

	pending, err := engine.ExtractPendingSkill(cmd.Context(), kind, sf.Content, sf.Name, date+"/"+sf.Name)
	if err != nil {
		sp.Stop(false, "failed")
		return err
	}
	if pending == nil {
		sp.Stop(true, "nothing worth extracting in this session")
		return nil
	}

	if output != "" {
		path, err := writeExtracted(pending, output)
		if err != nil {
			sp.Stop(false, "failed")
			return err
		}
		sp.Stop(true, fmt.Sprintf("extracted %s '%s'", kind, pending.Name))
		fmt.Printf("  %s %s\n", theme.IconArrow, path)
		return nil
	}

	if _, err := store.WritePendingSkill(date, pending); err != nil {
		sp.Stop(false, "failed")
		return err
	}

	logger.WithField("skill", pending.Name).Debug("Parked extraction for review")
	sp.Stop(true, fmt.Sprintf("parked %s '%s' for review", kind, pending.Name))
	fmt.Printf("  %s Review it with: daily skills list\n", theme.IconArrow)
	return nil
}

// writeExtracted lands the installable document at the requested output:
// skills get a directory holding SKILL.md, commands a markdown file.
func writeExtracted(p *archive.PendingSkill, output string) (string, error) {
	path := output
	if p.Kind == archive.KindSkill {
		path = filepath.Join(output, "SKILL.md")
	} else if filepath.Ext(path) != ".md" {
		path = filepath.Join(output, sanitize.ForFilename(p.Name)+".md")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.StorageIO("create", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(p.InstallDocument()), 0644); err != nil {
		return "", errors.StorageIO("write", path, err)
	}
	return path, nil
}
