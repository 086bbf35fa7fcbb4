package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recheck/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of external binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Default(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if detail == "" {
					detail = status.Description
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(status.Available),
					detail,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Binary", "Available", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return errors.New("required binaries are missing")
			}
			return nil
		},
	}
}
