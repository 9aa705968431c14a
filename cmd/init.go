package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/pkg/hooks"
	"github.com/grovetools/daily/pkg/paths"
	"github.com/grovetools/daily/tui/theme"
)

// NewInitCmd creates the `init` command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up storage, config, and editor hooks",
		Long: `Creates the archive storage directories, writes a commented starter
configuration if none exists, and registers the session hooks in Claude
Code's settings. Settings keys the tool does not own are left alone, and
running init again changes nothing.

Examples:
  # One-time setup against ~/.claude
  daily init

  # Register hooks in this project's .claude instead
  daily init --local
`,
		RunE: runInitE,
	}

	cmd.Flags().Bool("local", false, "Install hooks into ./.claude instead of the home directory")

	return cmd
}

func runInitE(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	claudeDir := paths.ClaudeDir()
	if local, _ := cmd.Flags().GetBool("local"); local {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		claudeDir = paths.LocalClaudeDir(cwd)
	}

	if err := hooks.NewInstaller(cfg).Run(claudeDir); err != nil {
		return err
	}

	fmt.Printf("%s Storage ready at %s\n", theme.IconSuccess, cfg.StoragePath())
	if path, found := config.FindConfigFile(); found {
		fmt.Printf("%s Config at %s\n", theme.IconSuccess, path)
	}
	fmt.Printf("%s Session hooks registered in %s\n", theme.IconSuccess, paths.SettingsFile(claudeDir))
	fmt.Printf("\nSessions will be archived as they end. See today's log with: daily show\n")
	return nil
}
