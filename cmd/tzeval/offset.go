package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newOffsetCmd(a *app) *cobra.Command {
	var (
		tzid string
		at   string
	)

	cmd := &cobra.Command{
		Use:   "offset FILE",
		Short: "Print the UTC offset of a time zone at an instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instant := time.Now().UTC()
			if at != "" {
				var err error
				if instant, err = parseInstant(at); err != nil {
					return err
				}
			}

			registry, err := a.openRegistry(args[0])
			if err != nil {
				return err
			}
			defer registry.Close()

			occ, err := registry.OccurrenceAt(tzid, instant)
			if err != nil {
				return err
			}
			o, ok := occ.Get()
			if !ok {
				return fmt.Errorf("%s has no observance in effect at %s", tzid, instant.Format(time.RFC3339))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.Source.Name(), formatOffset(o.Offset(instant)))
			return nil
		},
	}

	cmd.Flags().StringVar(&tzid, "tzid", "", "Time zone to query")
	cmd.Flags().StringVar(&at, "at", "", "Instant, RFC 3339 or YYYY-MM-DD (default now)")
	_ = cmd.MarkFlagRequired("tzid")
	return cmd
}
