package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recheck/internal/match"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var payees []string

	cmd := &cobra.Command{
		Use:   "match <extracted text>",
		Short: "Try the payee matcher against a block of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(payees) == 0 {
				return errors.New("at least one --payee is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			matcher := match.NewMatcher(cfg.Matching.FuzzyThreshold)
			outcome := matcher.MatchPayees(payees, args[0])

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Matched: %s (threshold %d)\n", yesNo(outcome.Matched), matcher.Threshold())

			rows := make([][]string, 0, len(outcome.Results))
			for _, result := range outcome.Results {
				rows = append(rows, []string{
					result.Payee,
					yesNo(result.Matched),
					fmt.Sprintf("%d", result.Score),
					result.Evidence,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Payee", "Matched", "Score", "Evidence"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&payees, "payee", nil, "Expected payee name (repeatable)")
	return cmd
}
