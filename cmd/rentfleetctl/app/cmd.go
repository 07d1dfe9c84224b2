// Package app implements rentfleetctl, the operator CLI of the cars service.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/rentfleet/internal/authority"
	"github.com/autopeer-io/rentfleet/internal/vehicle"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

// NewCommand returns the rentfleetctl root command.
func NewCommand() *cobra.Command {
	cars := options.NewUpstreamOptions("cars", "http://localhost:8000")

	cmd := &cobra.Command{
		Use:           "rentfleetctl",
		Short:         "Inspect and operate the rentfleet cars service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if errs := cars.Validate(); len(errs) > 0 {
				return errs[0]
			}
			return nil
		},
	}
	cars.AddFlags(cmd.PersistentFlags())

	client := func() *authority.Cars { return authority.NewCars(cars) }

	cmd.AddCommand(
		newStatusCommand(client),
		newActionCommand("start NAME", "Start the trip of a reserved vehicle", client, (*authority.Cars).Start),
		newActionCommand("stop NAME", "Stop a trip and settle it with the management service", client, (*authority.Cars).Stop),
		newActionCommand("emergency NAME", "Stop a trip without settlement", client, (*authority.Cars).Emergency),
		newOccupyCommand(client),
		newWatchCommand(),
	)
	return cmd
}

func newStatusCommand(client func() *authority.Cars) *cobra.Command {
	return &cobra.Command{
		Use:   "status [NAME]",
		Short: "Show the status of one vehicle or of the whole fleet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				list []vehicle.Status
				err  error
			)
			if len(args) == 1 {
				var st *vehicle.Status
				st, err = client().Status(cmd.Context(), args[0])
				if st != nil {
					list = []vehicle.Status{*st}
				}
			} else {
				list, err = client().List(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), list)
		},
	}
}

type actionFunc func(c *authority.Cars, ctx context.Context, name string) (*v1.MessageResponse, error)

func newActionCommand(use, short string, client func() *authority.Cars, fn actionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fn(client(), cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return err
		},
	}
}

func newOccupyCommand(client func() *authority.Cars) *cobra.Command {
	return &cobra.Command{
		Use:   "occupy PERSON",
		Short: "Ask the management service for a vehicle and reserve it for PERSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().Occupy(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return err
		},
	}
}
