package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by all commands.
type RootOptions struct {
	Config  string // optional YAML project config path
	Verbose bool
}

// NewRootCommand creates the svafsm root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "svafsm",
		Short: "Compile SVA property directives into monitor circuits",
		Long: `svafsm lowers SystemVerilog Assertion properties, described by a small
directive script, through the NFSM/UFSM/DFSM automaton pipeline and emits
the resulting assert/assume/cover monitor circuits on an in-memory module.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML project config path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "dump automaton state while building")

	cmd.AddCommand(NewBuildCommand(opts))

	return cmd
}
