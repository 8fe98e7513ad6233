package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/EternisAI/netharvest/internal/nmcli"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/EternisAI/netharvest/internal/tracker"
	"github.com/spf13/cobra"
)

var newExecutor = func() nmcli.CommandExecutor {
	return &nmcli.NativeExecutor{}
}

// Root returns the netharvest command tree.
func Root() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "netharvest",
		Short:         "Harvest Wi-Fi credentials and provision them with NetworkManager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return InitConfig(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: application.yaml in the search path)")

	cmd.AddCommand(runCommand("run", "Fetch, merge and provision new credentials", pipeline.PhaseAll))
	cmd.AddCommand(runCommand("harvest", "Fetch and merge credentials into the canonical set", pipeline.PhaseHarvest))
	cmd.AddCommand(runCommand("provision", "Provision credentials pending in the canonical set", pipeline.PhaseProvision))
	cmd.AddCommand(Diff())
	cmd.AddCommand(Serve())
	cmd.AddCommand(Version())

	return cmd
}

func runCommand(use, short string, phases pipeline.Phase) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			ctx, stop := runContext(cmd.Context())
			defer stop()

			report, runErr := newPipeline(config, newExecutor()).Run(ctx, phases)
			if err := renderReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			if code := report.Outcome.ExitCode(); code != 0 {
				return &exitError{code: code, err: runErr}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Report format: text, json or yaml")

	return cmd
}

// Diff returns the command that lists pending credentials without touching
// the host.
func Diff() *cobra.Command {
	var (
		output      string
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show credentials that have not been provisioned yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			delta, err := newPipeline(config, newExecutor()).Delta()
			if err != nil {
				if errors.Is(err, tracker.ErrNoCanonical) {
					slog.Error("Nothing to diff, run harvest first", "error", err)
					return &exitError{code: pipeline.OutcomeNoInput.ExitCode(), err: err}
				}
				return err
			}
			return renderDelta(cmd.OutOrStdout(), delta, format, showSecrets)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passphrases instead of masking them")

	return cmd
}

// Version returns the command printing the build version.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version := AppVersion
			if version == "" {
				version = "dev"
			}
			fmt.Fprintln(cmd.OutOrStdout(), "netharvest", version)
		},
	}
}

func runContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
