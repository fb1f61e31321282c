package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gromero/svafsm/circuit"
	"github.com/gromero/svafsm/directive"
	"github.com/gromero/svafsm/property"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	LineWidth int
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <script>",
		Short: "Build monitor circuits from a directive script",
		Long: `Build parses a directive script, compiles each property directive into
an SVA operator tree, runs it through the automaton pipeline and reports
the monitor cells emitted on the reference module.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.LineWidth, "width", "w", 0, "wrap column for verbose dumps")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var project property.ProjectConfig
	if opts.Config != "" {
		project, err = property.LoadProjectConfig(opts.Config)
		if err != nil {
			return err
		}
	}

	module := circuit.NewModule()
	script, err := directive.Load(string(data), module)
	if err != nil {
		return err
	}

	dr := &property.Driver{
		Builder: module,
		Netlist: script.Netlist,
		Log:     slog.Default(),
		DumpTo:  cmd.ErrOrStderr(),
		Namer:   script.Netlist.Namer(),
	}

	built := 0
	for _, p := range script.Props {
		po := project.Options(p.Name)
		po.ModeAssert = p.Assert
		po.ModeAssume = p.Assume
		po.ModeCover = p.Cover
		po.ModeKeep = po.ModeKeep || p.Keep
		po.Verbose = po.Verbose || p.Verbose || opts.Verbose
		if opts.LineWidth > 0 {
			po.LineWidth = opts.LineWidth
		}

		cell, err := dr.Import(p.Root, po)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		if cell == nil {
			slog.Warn("property skipped", "name", p.Name)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cellKindName(cell.Kind), cell.Name)
		built++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "built %d of %d properties\n", built, len(script.Props))
	return nil
}

func cellKindName(k circuit.CellKind) string {
	switch k {
	case circuit.CellAssert:
		return "assert"
	case circuit.CellAssume:
		return "assume"
	case circuit.CellCover:
		return "cover"
	case circuit.CellLive:
		return "live"
	case circuit.CellFair:
		return "fair"
	}
	return "unknown"
}
