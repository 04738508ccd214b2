package main

import (
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
)

func newReadCmd(c *cli) *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "read <resource>",
		Short: "Read matching records of a resource from the primary store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}

			return c.withApp(cmd.Context(), func(a *app) error {
				a.router.Start(cmd.Context())
				res := a.router.Read(cmd.Context(), args[0], filter)

				f := c.formatter(cmd)
				format, _ := c.flags.Format()
				switch {
				case format != internal.FormatText:
					err = f.PrintData(res)
				case res.Success:
					err = f.PrintData(res.Rows)
				default:
					err = f.PrintError(res.Resource + ": [" + string(res.Code) + "] " + res.Reason)
				}
				if err != nil {
					return err
				}
				if !res.Success {
					return internal.WrapError(internal.ExitError, "read failed", res.Err())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "equality filter key=value (repeatable)")
	return cmd
}
