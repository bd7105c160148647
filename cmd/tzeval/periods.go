package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPeriodsCmd(a *app) *cobra.Command {
	var (
		tzids []string
		start string
	)

	cmd := &cobra.Command{
		Use:   "periods FILE",
		Short: "Print the observance periods of one or more time zones",
		Long: `Evaluates each requested time zone one lookahead past --start and prints
every resolved period with the observance in effect and its UTC offset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if start != "" {
				var err error
				if at, err = parseInstant(start); err != nil {
					return err
				}
			}

			registry, err := a.openRegistry(args[0])
			if err != nil {
				return err
			}
			defer registry.Close()

			if len(tzids) == 0 {
				tzids = registry.TZIDs()
			}
			merged, err := registry.Merged(tzids...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, tzid := range tzids {
				occurrences, err := registry.Occurrences(tzid, at, at, at)
				if err != nil {
					return err
				}
				for _, occ := range occurrences {
					onset := occ.Period.Start.UTC()
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
						tzid,
						occ.Source.Name(),
						formatOffset(occ.Offset(onset)),
						onset.Format(time.RFC3339),
						occ.Period.End.MustGet().UTC().Format(time.RFC3339Nano))
				}
			}
			if len(tzids) > 1 {
				fmt.Fprintf(out, "total\t%d\n", merged.Count())
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tzids, "tzid", nil, "Time zone to evaluate, repeatable (default all)")
	cmd.Flags().StringVar(&start, "start", "", "Evaluation start, RFC 3339 or YYYY-MM-DD (default now)")
	return cmd
}
