package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
	"github.com/zero-day-ai/memrouter/internal/router"
)

func newWriteCmd(c *cli) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "write <resource>",
		Short: "Write a payload to a resource through the router",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(data, cmd.InOrStdin())
			if err != nil {
				return err
			}

			return c.withApp(cmd.Context(), func(a *app) error {
				a.router.Start(cmd.Context())
				res := a.router.Write(cmd.Context(), args[0], payload)
				if err := printWriteResult(c, cmd, res); err != nil {
					return err
				}
				if !res.Success {
					return internal.WrapError(internal.ExitError, "write failed", res.Err())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", `payload as a JSON object, or "-" for stdin`)
	return cmd
}

func printWriteResult(c *cli, cmd *cobra.Command, res router.WriteResult) error {
	f := c.formatter(cmd)
	if format, _ := c.flags.Format(); format != internal.FormatText {
		return f.PrintData(res)
	}

	var err error
	if res.Success {
		err = f.PrintSuccess(fmt.Sprintf("%s (%s) written, checksum %s", res.Resource, res.Tier, res.Checksum))
	} else {
		err = f.PrintError(fmt.Sprintf("%s: [%s] %s", res.Resource, res.Code, res.Reason))
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, 2)
	for _, sub := range []router.SubResult{res.Primary, res.Secondary} {
		rows = append(rows, []string{sub.Backend.String(), string(sub.Status), string(sub.Code), sub.Detail})
	}
	return f.PrintTable([]string{"backend", "status", "code", "detail"}, rows)
}
