package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recheck/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <issuance.csv>",
		Short: "Load check records from an issuance CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			summary, err := importer.New(s, logger).ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d record(s) from %s\n", summary.Imported, args[0])
			if summary.Skipped > 0 {
				fmt.Fprintf(out, "Skipped %d invalid record(s); see logs for details\n", summary.Skipped)
			}
			return nil
		},
	}
}
