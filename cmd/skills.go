package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/tui/components/table"
	"github.com/grovetools/daily/tui/theme"
)

// NewSkillsCmd creates the `skills` command.
func NewSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Review skills extracted from archived sessions",
		Long: `Sessions sometimes yield a reusable pattern worth keeping. The
summarizer parks those under pending-skills/<date>/ for review; approving
one installs it into the editor's skills or commands directory, rejecting
one discards it.

Examples:
  # What is waiting for review
  daily skills list

  # Install one
  daily skills approve 2026-08-24 debug-cookie-auth

  # Discard one
  daily skills reject 2026-08-24 noisy-idea
`,
	}

	cmd.AddCommand(newSkillsListCmd())
	cmd.AddCommand(newSkillsApproveCmd())
	cmd.AddCommand(newSkillsRejectCmd())

	return cmd
}

// openStore loads configuration and opens the archive store.
func openStore(cmd *cobra.Command) (*archive.Store, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return archive.NewStore(cfg), nil
}

func newSkillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List skills awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			pending, err := store.ListPendingSkills()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("No skills awaiting review.")
				return nil
			}

			t := table.New("KIND", "NAME", "DATE", "DESCRIPTION")
			for _, p := range pending {
				t.Row(kindCell(p.Kind), p.Name, p.Date, p.Description)
			}
			fmt.Println(t)
			fmt.Printf("\nApprove with: daily skills approve <date> <name>\n")
			return nil
		},
	}
}

// kindCell renders the kind column with its icon.
func kindCell(kind string) string {
	if kind == archive.KindCommand {
		return theme.IconCommand + " command"
	}
	return theme.IconSkill + " skill"
}

func newSkillsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <date> <name>",
		Short: "Install a pending skill into the editor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := resolveDate(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			installed, err := store.ApprovePendingSkill(date, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s Installed '%s'\n", theme.IconSuccess, args[1])
			fmt.Printf("  %s %s\n", theme.IconArrow, installed)
			return nil
		},
	}
}

func newSkillsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <date> <name>",
		Short: "Discard a pending skill",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := resolveDate(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			if err := store.RejectPendingSkill(date, args[1]); err != nil {
				return err
			}
			fmt.Printf("%s Rejected '%s'\n", theme.IconSuccess, args[1])
			return nil
		},
	}
}
