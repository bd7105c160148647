package main

import (
	"fmt"

	"github.com/cyp0633/tzeval/vtimezone"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE",
		Short: "List the time zones defined in an .ics file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := loadZones(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tz := range zones {
				fmt.Fprintf(out, "%s\tstandard=%d\tdaylight=%d\n", tz.ID(),
					len(tz.ObservancesOf(vtimezone.KindStandard)),
					len(tz.ObservancesOf(vtimezone.KindDaylight)))
			}
			return nil
		},
	}
}
