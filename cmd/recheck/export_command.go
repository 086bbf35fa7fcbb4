package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recheck/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var mismatches bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write reconciliation results and check images to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(dir)
			if target == "" {
				target = cfg.Paths.ExportDir
			}

			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			summary, err := export.New(s, logger).Export(cmd.Context(), target, mismatches)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d row(s) to %s\n", summary.Rows, summary.CSVPath)
			fmt.Fprintf(out, "Wrote %d image(s)\n", summary.Images)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Target directory (defaults to export_dir from config)")
	cmd.Flags().BoolVar(&mismatches, "mismatches", false, "Export only checks whose payee never matched")
	return cmd
}
