package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/hooks"
	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/pkg/trigger"
)

// NewHookCmd creates the `hook` command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Receive editor lifecycle events on stdin",
		Long: `Reads a hook payload from stdin and reacts to it. These commands are
wired into the editor's settings by 'daily init' and are not meant to be
run by hand. They always exit 0: a broken archive must never block the
editor from closing.

Examples:
  # What the editor runs when a session ends
  echo '{"hook_event_name":"SessionEnd","reason":"user_exit"}' | daily hook session-end
`,
	}

	cmd.AddCommand(newHookSessionStartCmd())
	cmd.AddCommand(newHookSessionEndCmd())

	return cmd
}

func newHookSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-start",
		Short: "Handle a SessionStart event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, func(g *hooks.Gateway, in *hooks.Input) {
				g.HandleSessionStart(in)
			})
		},
	}
}

func newHookSessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-end",
		Short: "Handle a SessionEnd event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, func(g *hooks.Gateway, in *hooks.Input) {
				g.HandleSessionEnd(in)
			})
		},
	}
}

// runHook decodes the stdin payload, builds the gateway, and invokes
// handle. Every failure is logged and swallowed so the hook process
// always exits 0.
func runHook(cmd *cobra.Command, handle func(*hooks.Gateway, *hooks.Input)) error {
	logger := cli.GetLogger(cmd)

	in, err := hooks.ReadInput(cmd.InOrStdin())
	if err != nil {
		logger.WithError(err).Warn("Bad hook payload")
		return nil
	}

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		logger.WithError(err).Warn("No usable configuration for hook")
		return nil
	}

	registry, err := jobs.NewRegistry(cfg)
	if err != nil {
		logger.WithError(err).Warn("Could not open job registry")
		return nil
	}

	store := archive.NewStore(cfg)
	scheduler := trigger.NewScheduler(cfg, store, registry)
	gateway := hooks.NewGateway(cfg, scheduler, registry)

	handle(gateway, in)
	return nil
}
