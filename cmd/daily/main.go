package main

import (
	"os"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/cmd"
	"github.com/grovetools/daily/pkg/profiling"
	"github.com/grovetools/daily/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"daily",
		"Archive AI work sessions into a browsable daily log",
	)
	cli.SetVersionTemplate(rootCmd, version.GetInfo())

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(rootCmd)
	rootCmd.PersistentPreRunE = profiler.PreRun
	rootCmd.PersistentPostRun = profiler.PostRun

	// Add subcommands
	rootCmd.AddCommand(cmd.NewInitCmd())
	rootCmd.AddCommand(cmd.NewUninstallCmd())
	rootCmd.AddCommand(cmd.NewHookCmd())
	rootCmd.AddCommand(cmd.NewSummarizeCmd())
	rootCmd.AddCommand(cmd.NewDigestCmd())
	rootCmd.AddCommand(cmd.NewJobsCmd())
	rootCmd.AddCommand(cmd.NewShowCmd())
	rootCmd.AddCommand(cmd.NewSkillsCmd())
	rootCmd.AddCommand(cmd.NewExtractCmd())
	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("daily"))

	cli.ApplyStyledHelpRecursive(rootCmd)
	cli.WrapUsageErrors(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		if cli.IsUsageError(err) {
			cli.PrintError(rootCmd, err)
		} else {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
			cli.NewErrorHandler(verbose).Handle(err)
		}
		os.Exit(cli.ExitCode(err))
	}
}
