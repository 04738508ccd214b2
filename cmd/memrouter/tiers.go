package main

import (
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/internal/tier"
)

func newTiersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "List the resources assigned to each tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classifier, err := tier.NewClassifier(c.cfg.Tiers.Membership())
			if err != nil {
				return err
			}

			var rows [][]string
			for _, t := range classifier.Tiers() {
				for _, resource := range classifier.Resources(t) {
					rows = append(rows, []string{t.String(), resource})
				}
			}
			return c.formatter(cmd).PrintTable([]string{"tier", "resource"}, rows)
		},
	}
}
