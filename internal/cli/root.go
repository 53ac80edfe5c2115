// Package cli wires the orchestration engine to its command-line surface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kadlec/drover/internal/plugin"
	"github.com/kadlec/drover/internal/props"
	"github.com/kadlec/drover/internal/run"
	"github.com/kadlec/drover/internal/target"
	"github.com/kadlec/drover/internal/writer"
)

// RootOptions holds the flags of the root command.
type RootOptions struct {
	File      string   // base properties file
	Overrides []string // -Pkey=value pairs, applied over the file
	Verbose   bool     // debug-level logging
}

// NewRootCommand creates the drover root command. It runs one run
// synchronously with the default plugin set and exits non-zero when any
// query failed.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "drover",
		Short:         "drover runs SQL test scenarios and summarizes their results",
		Long: "Drover discovers test scenarios, executes their query suites against\n" +
			"the configured database and writes plain-text result summaries.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "base properties file")
	cmd.Flags().StringArrayVarP(&opts.Overrides, "property", "P", nil,
		"override a single configuration key (-Pkey=value, repeatable)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runRoot(cmd *cobra.Command, opts *RootOptions) error {
	p, err := loadProperties(opts)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	plugins := plugin.NewRegistry(log)
	plugins.RegisterResultMode(plugin.NoneMode{})
	plugins.RegisterWriter(writer.NewDefault(log))

	orch := run.New(p, plugins, target.NewSQLite(log), run.WithLogger(log))
	if err := orch.Start(true); err != nil {
		return WrapExitError(ExitCommandError, "cannot start run", err)
	}

	res := orch.Result()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scenarios: %d\n", len(res.Scenarios))
	fmt.Fprintf(out, "Passed queries:  %d\n", res.Passed())
	fmt.Fprintf(out, "Failed queries:  %d\n", res.Failed())
	fmt.Fprintf(out, "Skipped queries: %d\n", res.Skipped())
	fmt.Fprintf(out, "All queries:     %d\n", res.All())

	if failed := res.Failed(); failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d queries failed", failed))
	}
	return nil
}

// loadProperties builds the run configuration from the base file and the
// -P overrides, overrides winning.
func loadProperties(opts *RootOptions) (*props.Properties, error) {
	p := props.New()
	if opts.File != "" {
		loaded, err := props.Load(opts.File)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "cannot read properties file", err)
		}
		p = loaded
	}
	for _, ov := range opts.Overrides {
		key, value, ok := strings.Cut(ov, "=")
		if !ok || key == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid property override %q, expected key=value", ov))
		}
		p.Set(key, value)
	}
	return p, nil
}

// Execute runs the root command and maps its outcome to an exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
