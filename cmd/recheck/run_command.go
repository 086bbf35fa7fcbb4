package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"recheck/internal/deps"
	"recheck/internal/match"
	"recheck/internal/metrics"
	"recheck/internal/ocr"
	"recheck/internal/pdfconv"
	"recheck/internal/pipeline"
	"recheck/internal/portal"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process pending check records in batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Default(cfg))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required binaries: %s (run `recheck deps` for details)", strings.Join(missing, ", "))
			}

			// One pipeline at a time per data directory. Batch claims are
			// transactional regardless; the lock keeps portal sessions and
			// metrics listeners from doubling up.
			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "recheck.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return errors.New("another recheck run is already active")
			}
			defer lock.Unlock()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			session, err := portal.NewSession(cfg, logger)
			if err != nil {
				return err
			}
			if err := session.Open(runCtx); err != nil {
				return fmt.Errorf("open portal session: %w", err)
			}
			defer session.Close(context.Background())

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
				go func() {
					if err := m.StartServer(runCtx, cfg.Metrics.Bind, logger); err != nil {
						logger.Warn("metrics endpoint stopped", "error", err)
					}
				}()
			}

			orchestrator, err := pipeline.NewOrchestrator(cfg, s, pipeline.Collaborators{
				Fetcher:   session,
				Converter: pdfconv.NewRunner(cfg),
				OCR:       ocr.NewRunner(cfg),
				Matcher:   match.NewMatcher(cfg.Matching.FuzzyThreshold),
			}, logger, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for {
				summary, err := orchestrator.RunBatch(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Batch %s: %d claimed, %d matched, %d unmatched, %d skipped, %d failed (%s)\n",
					summary.BatchID, summary.Claimed, summary.Matched, summary.Unmatched,
					summary.Skipped, summary.Failed, summary.Duration.Round(10*time.Millisecond))
				if once || summary.Claimed == 0 || runCtx.Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Process a single batch and exit")
	return cmd
}
