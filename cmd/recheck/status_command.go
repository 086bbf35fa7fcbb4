package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"recheck/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show check record counts by pipeline state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}

			statuses := store.AllStatuses()
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				count := stats[status]
				if count == 0 {
					continue
				}
				rows = append(rows, []string{string(status), strconv.Itoa(count)})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No check records in the queue")
				return nil
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Status", "Records"},
				rows,
				[]columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Total: %d\n", stats.Total())
			return nil
		},
	}
}
