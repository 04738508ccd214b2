package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
	"github.com/zero-day-ai/memrouter/internal/backend"
	"github.com/zero-day-ai/memrouter/internal/health"
)

func newHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe both backends and report their state",
		Long: `Probe both backends once and report their state. Exits non-zero when
any backend is offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				a.router.Start(cmd.Context())
				statuses := sortedStatuses(a.router.Monitor().Snapshot())

				if err := printStatuses(c, cmd, statuses); err != nil {
					return err
				}

				var offline int
				for _, st := range statuses {
					if st.State != health.Alive.String() {
						offline++
					}
				}
				if offline > 0 {
					return internal.NewCLIError(internal.ExitBackendError, fmt.Sprintf("%d backend(s) offline", offline))
				}
				return nil
			})
		},
	}
}

func sortedStatuses(snapshot map[backend.ID]health.Status) []health.Status {
	out := make([]health.Status, 0, len(snapshot))
	for _, id := range slices.Sorted(maps.Keys(snapshot)) {
		out = append(out, snapshot[id])
	}
	return out
}

func printStatuses(c *cli, cmd *cobra.Command, statuses []health.Status) error {
	f := c.formatter(cmd)
	if format, _ := c.flags.Format(); format != internal.FormatText {
		return f.PrintData(statuses)
	}

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		checked := "-"
		if !st.CheckedAt.IsZero() {
			checked = st.CheckedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		rows = append(rows, []string{st.Backend.String(), st.State, checked, st.LastError})
	}
	return f.PrintTable([]string{"backend", "state", "checked_at", "last_error"}, rows)
}
