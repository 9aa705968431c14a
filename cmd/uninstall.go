package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/pkg/hooks"
	"github.com/grovetools/daily/pkg/paths"
	"github.com/grovetools/daily/tui/theme"
)

// NewUninstallCmd creates the `uninstall` command.
func NewUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the session hooks from Claude Code",
		Long: `Removes this tool's entries from Claude Code's settings so sessions stop
being archived. Hooks registered by anything else are left alone, and the
archive itself is never touched.

Examples:
  # Unregister from ~/.claude
  daily uninstall

  # Unregister from this project's .claude
  daily uninstall --local
`,
		RunE: runUninstallE,
	}

	cmd.Flags().Bool("local", false, "Remove hooks from ./.claude instead of the home directory")

	return cmd
}

func runUninstallE(cmd *cobra.Command, args []string) error {
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

	removed, err := hooks.NewInstaller(cfg).Uninstall(claudeDir)
	if err != nil {
		return err
	}

	if removed == 0 {
		fmt.Printf("%s Nothing to uninstall, no hooks were registered in %s\n",
			theme.IconInfo, paths.SettingsFile(claudeDir))
		return nil
	}

	fmt.Printf("%s Removed %d hook entries from %s\n",
		theme.IconSuccess, removed, paths.SettingsFile(claudeDir))
	fmt.Printf("  %s Archive data at %s was preserved\n", theme.IconInfo, cfg.StoragePath())
	return nil
}
