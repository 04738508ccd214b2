package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
	"github.com/zero-day-ai/memrouter/internal/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(c))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		write bool
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print the default configuration, or write it with --write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if !write {
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if path == "" {
				path = config.DefaultConfigPath(config.DefaultHomeDir())
			}
			if err := config.Write(path, cfg, force); err != nil {
				return internal.WrapError(internal.ExitConfigError, "failed to write config", err)
			}
			_, err := cmd.OutOrStdout().Write([]byte("wrote " + path + "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the file instead of printing it")
	cmd.Flags().StringVar(&path, "path", "", "destination (default: $MEMROUTER_HOME/config.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// newConfigShowCmd prints the effective configuration. The graph password is
// omitted because the formatters render through its json tag.
func newConfigShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after defaults and overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.formatter(cmd).PrintData(c.cfg)
		},
	}
}
