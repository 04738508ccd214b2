package main

import (
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	OutputFormat string
	ConfigFile   string
}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging and error causes")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "text", "Output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: $MEMROUTER_HOME/config.yaml)")
}

// Format returns the parsed output format.
func (f *GlobalFlags) Format() (internal.OutputFormat, error) {
	return internal.ParseOutputFormat(f.OutputFormat)
}
