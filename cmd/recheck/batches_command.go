package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newBatchesCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Show recent batch history",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			batches, err := s.ListBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(batches) == 0 {
				fmt.Fprintln(out, "No batches recorded")
				return nil
			}

			rows := make([][]string, 0, len(batches))
			for _, batch := range batches {
				rows = append(rows, []string{
					batch.ID,
					string(batch.Status),
					strconv.Itoa(batch.FailedRecords),
					batch.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Batch", "Status", "Failed", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of batches to show")
	return cmd
}
