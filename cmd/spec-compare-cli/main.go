// Package main provides the spec-compare CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/config"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli holds the global flags and what PersistentPreRunE derives from them.
type cli struct {
	cfgFile    string
	outputJSON bool
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "spec-compare-cli",
		Short: "Extract and compare datasheet specifications",
		Long: `spec-compare-cli turns product datasheets into specification documents
and reports where the specifications of several models differ.

Use this tool to:
- Extract specification documents from PDF, XLSX, HTML or extractor JSON files
- Store extracted documents in the configured database
- Compare models from files or from stored documents
- Check how raw unit spellings are standardized

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := cfg.Observability.LogLevel
			if c.verbose {
				level = "debug"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "spec-compare-cli",
			})

			c.ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), c.outputJSON, c.noColor || !IsTerminal(os.Stdout))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.newExtractCmd())
	root.AddCommand(c.newCompareCmd())
	root.AddCommand(c.newUnitsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spec-compare-cli %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
