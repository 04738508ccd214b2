package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
	"github.com/zero-day-ai/memrouter/internal/config"
	"github.com/zero-day-ai/memrouter/internal/observability"
	"github.com/zero-day-ai/memrouter/pkg/version"
)

// cli is the state shared by every subcommand of one root command.
type cli struct {
	flags     GlobalFlags
	cfg       *config.Config
	logger    *slog.Logger
	closeLogs func() error
}

// Execute runs root with SIGINT/SIGTERM cancelling the command context.
func Execute(ctx context.Context, root *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "memrouter",
		Short: "Tiered memory router for agent data",
		Long: `memrouter routes agent memory writes to a relational primary store and a
graph secondary store according to each resource's tier, after a governance
check, and serves reads from the primary store.`,
		PersistentPreRunE:  c.loadConfig,
		PersistentPostRunE: c.closeLogger,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}
	RegisterGlobalFlags(root, &c.flags)

	root.AddCommand(
		newVersionCmd(c),
		newConfigCmd(c),
		newTiersCmd(c),
		newValidateCmd(c),
		newHealthCmd(c),
		newWriteCmd(c),
		newReadCmd(c),
		newDBCmd(c),
		newWatchCmd(c),
	)
	return root
}

// loadConfig runs before every command. An explicit --config must exist; the
// default path falls back to built-in defaults.
func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	if _, err := c.flags.Format(); err != nil {
		return err
	}
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	loader := config.NewConfigLoader(config.NewValidator())
	var (
		cfg *config.Config
		err error
	)
	if c.flags.ConfigFile != "" {
		cfg, err = loader.Load(c.flags.ConfigFile)
	} else {
		cfg, err = loader.LoadWithDefaults(config.DefaultConfigPath(config.DefaultHomeDir()))
	}
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load configuration", err)
	}
	if c.flags.Verbose {
		cfg.Logging.Level = "debug"
	}
	c.cfg = cfg

	w, closeFn, err := observability.OpenOutput(cfg.Logging)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to open log output", err)
	}
	c.logger = observability.NewLogger(cfg.Logging, w)
	c.closeLogs = closeFn
	return nil
}

func (c *cli) closeLogger(*cobra.Command, []string) error {
	if c.closeLogs == nil {
		return nil
	}
	return c.closeLogs()
}

// formatter returns the output formatter for cmd's stdout.
func (c *cli) formatter(cmd *cobra.Command) internal.Formatter {
	format, _ := c.flags.Format()
	return internal.NewFormatter(format, cmd.OutOrStdout())
}

func (c *cli) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := c.flags.Format()
			if format == internal.FormatText {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return err
			}
			return c.formatter(cmd).PrintData(version.Info())
		},
	}
}
