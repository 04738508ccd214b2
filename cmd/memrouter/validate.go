package main

import (
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/cmd/memrouter/internal"
	"github.com/zero-day-ai/memrouter/internal/governance"
)

type validateOutput struct {
	governance.ValidationResult
	Checksum string `json:"checksum,omitempty"`
}

func newValidateCmd(c *cli) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run a payload through the governance gate without writing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := readPayload(data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			gate, err := governance.NewGate(c.cfg.Governance)
			if err != nil {
				return err
			}

			clean := governance.StripReserved(payload)
			out := validateOutput{ValidationResult: gate.Validate(clean)}
			if out.Allowed {
				if out.Checksum, err = governance.Checksum(clean); err != nil {
					return err
				}
			}

			f := c.formatter(cmd)
			if format, _ := c.flags.Format(); format == internal.FormatText {
				if out.Allowed {
					err = f.PrintSuccess("payload allowed (checksum " + out.Checksum + ")")
				} else {
					err = f.PrintError("payload rejected by " + out.Rule + ": " + out.Reason)
				}
			} else {
				err = f.PrintData(out)
			}
			if err != nil {
				return err
			}
			if !out.Allowed {
				return internal.WrapError(internal.ExitRejected, "payload rejected", out.Err())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", `payload as a JSON object, or "-" for stdin`)
	return cmd
}
