package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/pkg/trigger"
	"github.com/grovetools/daily/tui/theme"
)

// NewShowCmd creates the `show` command.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [date]",
		Short: "Show a date's digest and pending sessions",
		Long: `Prints the consolidated digest for a date, plus any session archives
still waiting to be folded in. Dates are YYYY-MM-DD, or the shorthands:
today, yesterday, or yest.

Examples:
  # Today's digest
  daily show

  # What yesterday looked like
  daily show yesterday
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShowE,
	}
}

func runShowE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)

	dateArg := ""
	if len(args) > 0 {
		dateArg = args[0]
	}
	date, err := resolveDate(dateArg)
	if err != nil {
		return err
	}

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	store := archive.NewStore(cfg)

	// Viewer-open catch-up: archive transcripts that went quiet without a
	// session-end hook, when configured to. Failures only dim the view.
	if registry, rerr := jobs.NewRegistry(cfg); rerr == nil {
		scheduler := trigger.NewScheduler(cfg, store, registry)
		if created, serr := scheduler.AutoSummarizeOnShow(); serr != nil {
			logger.WithError(serr).Warn("Catch-up scan failed")
		} else if len(created) > 0 {
			fmt.Printf("%s Spawned %d catch-up workers; see 'daily jobs list'.\n\n", theme.IconInfo, len(created))
		}
	} else {
		logger.WithError(rerr).Warn("Could not open job registry")
	}

	d, err := store.ReadDigest(date)
	if err != nil {
		return err
	}
	sessions, err := store.ReadSessions(date)
	if err != nil {
		return err
	}

	t := theme.DefaultTheme

	if d == nil && len(sessions) == 0 {
		fmt.Printf("Nothing archived for %s yet.\n", date)
		return nil
	}

	if d != nil {
		fmt.Println(t.Title.Render("Daily Digest: " + date))
		fmt.Println()
		printSection(t, "Overview", d.Overview)
		printSection(t, "Sessions", d.SessionDetails)
		printSection(t, "Insights", d.Insights)
		printSection(t, "Tomorrow's Focus", d.TomorrowFocus)

		provenance := fmt.Sprintf("Digested at %s from %d sessions", d.DigestedAt.Format("15:04"), len(d.Sessions))
		if len(d.Periods) > 0 {
			provenance += " (" + strings.Join(d.Periods, ", ") + ")"
		}
		fmt.Println(t.Muted.Render(provenance))
	} else {
		fmt.Printf("No digest for %s yet. Run 'daily digest --date %s' to consolidate.\n", date, date)
	}

	if len(sessions) > 0 {
		fmt.Println()
		fmt.Println(t.Header.Render("Awaiting digest"))
		for _, s := range sessions {
			fmt.Printf("  %s %s\n", theme.IconBullet, s.Name)
		}
	}

	if pending, perr := store.ListPendingSkills(); perr == nil && len(pending) > 0 {
		fmt.Printf("\n%s %d extracted skills await review: daily skills list\n", theme.IconSkill, len(pending))
	}

	return nil
}

// printSection prints one styled digest section, skipping empty ones.
func printSection(t *theme.Theme, title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	fmt.Println(t.Header.Render(title))
	fmt.Println(body)
	fmt.Println()
}
