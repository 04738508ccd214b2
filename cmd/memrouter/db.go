package main

import (
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/internal/database"
)

type dbStatus struct {
	Path       string                   `json:"path"`
	Version    int                      `json:"schema_version"`
	Migrations []database.MigrationInfo `json:"migrations"`
	Pool       database.Stats           `json:"pool"`
}

func newDBCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Primary store maintenance",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the primary store's schema version and applied migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withApp(cmd.Context(), func(a *app) error {
					db := a.primary.DB()
					migrator := database.NewMigrator(db)

					version, err := migrator.CurrentVersion(cmd.Context())
					if err != nil {
						return err
					}
					applied, err := migrator.Applied(cmd.Context())
					if err != nil {
						return err
					}
					return c.formatter(cmd).PrintData(dbStatus{
						Path:       db.Path(),
						Version:    version,
						Migrations: applied,
						Pool:       db.Stats(),
					})
				})
			},
		},
		&cobra.Command{
			Use:   "checkpoint",
			Short: "Flush the write-ahead log into the primary database file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withApp(cmd.Context(), func(a *app) error {
					if err := a.primary.DB().Checkpoint(cmd.Context()); err != nil {
						return err
					}
					return c.formatter(cmd).PrintSuccess("checkpoint complete")
				})
			},
		},
	)
	return cmd
}
