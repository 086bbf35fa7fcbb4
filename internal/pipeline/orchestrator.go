package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recheck/internal/config"
	"recheck/internal/logging"
	"recheck/internal/match"
	"recheck/internal/metrics"
	"recheck/internal/ocr"
	"recheck/internal/pdfconv"
	"recheck/internal/portal"
	"recheck/internal/services"
	"recheck/internal/store"
)

// Record outcomes, also used as metric labels.
const (
	outcomeMatched   = "matched"
	outcomeUnmatched = "unmatched"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

// Collaborators are the external services one batch run depends on. Tests
// substitute stubs here.
type Collaborators struct {
	Fetcher   portal.Fetcher
	Converter pdfconv.Converter
	OCR       ocr.Engine
	Matcher   *match.Matcher
}

func (c Collaborators) validate() error {
	if c.Fetcher == nil {
		return errors.New("pipeline requires a portal fetcher")
	}
	if c.Converter == nil {
		return errors.New("pipeline requires a pdf converter")
	}
	if c.OCR == nil {
		return errors.New("pipeline requires an ocr engine")
	}
	if c.Matcher == nil {
		return errors.New("pipeline requires a payee matcher")
	}
	return nil
}

// BatchSummary reports what one batch run did.
type BatchSummary struct {
	BatchID   string
	Claimed   int
	Matched   int
	Unmatched int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Orchestrator runs reconciliation batches against the store.
type Orchestrator struct {
	cfg     *config.Config
	store   *store.Store
	collab  Collaborators
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewOrchestrator wires a batch runner. The metrics argument may be nil when
// no scrape endpoint is configured.
func NewOrchestrator(cfg *config.Config, st *store.Store, collab Collaborators, logger *slog.Logger, m *metrics.Metrics) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires configuration")
	}
	if st == nil {
		return nil, errors.New("pipeline requires a store")
	}
	if err := collab.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:     cfg,
		store:   st,
		collab:  collab,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		metrics: m,
	}, nil
}

// RunBatch claims one batch of pending records and processes it to
// completion. An empty claim still completes its batch so the run is visible
// in batch history.
func (o *Orchestrator) RunBatch(ctx context.Context) (*BatchSummary, error) {
	started := time.Now()
	ctx = services.WithRequestID(ctx, uuid.NewString())

	batch, records, err := o.store.CreateAndClaimBatch(ctx, o.cfg.Pipeline.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	ctx = services.WithBatchID(ctx, batch.ID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("batch claimed", logging.Int("records", len(records)))

	outcomes := make([]string, len(records))
	workers := o.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}

	// Cancellation stops new records from starting; a record already in
	// flight runs to completion on the detached context so shutdown never
	// fails it mid-stage. Records that never started stay claimed for a
	// later run, like a portal miss.
	detached := context.WithoutCancel(ctx)
	var group errgroup.Group
	group.SetLimit(workers)
	for i, record := range records {
		i, record := i, record
		group.Go(func() error {
			if ctx.Err() != nil {
				logging.WithContext(ctx, o.logger).Warn("record not started, shutting down",
					logging.String(logging.FieldCheckID, record.ID))
				outcomes[i] = outcomeSkipped
				o.countOutcome(outcomeSkipped)
				return nil
			}
			outcomes[i] = o.processRecord(detached, record)
			return nil
		})
	}
	_ = group.Wait()

	summary := &BatchSummary{BatchID: batch.ID, Claimed: len(records)}
	for _, outcome := range outcomes {
		switch outcome {
		case outcomeMatched:
			summary.Matched++
		case outcomeUnmatched:
			summary.Unmatched++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		}
	}

	if err := o.store.CompleteBatch(detached, batch.ID, summary.Failed); err != nil {
		return nil, err
	}
	if _, err := o.store.MarkBatchProcessed(detached, batch.ID); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(started)
	if o.metrics != nil {
		o.metrics.BatchCompleted(summary.Duration)
	}
	logger.Info("batch completed",
		logging.Int("matched", summary.Matched),
		logging.Int("unmatched", summary.Unmatched),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

// processRecord drives one claimed record through the stage sequence. Stage
// failures mark the record failed and stop there; the batch carries on.
func (o *Orchestrator) processRecord(ctx context.Context, record *store.CheckRecord) string {
	ctx = services.WithCheckID(ctx, record.ID)

	pdf, found, err := o.download(ctx, record)
	if err != nil {
		return o.fail(ctx, record, err)
	}
	if !found {
		// The portal may simply not have scanned the document yet. Leave the
		// record claimed; a later run can pick it up after re-queueing.
		logging.WithContext(ctx, o.logger).Warn("document not on portal",
			logging.String("guid", record.GUID))
		o.countOutcome(outcomeSkipped)
		return outcomeSkipped
	}

	images, err := o.convert(ctx, record, pdf)
	if err != nil {
		return o.fail(ctx, record, err)
	}

	results, err := o.extract(ctx, record, images)
	if err != nil {
		return o.fail(ctx, record, err)
	}

	matched, err := o.matchPayees(ctx, record, results)
	if err != nil {
		return o.fail(ctx, record, err)
	}
	if matched {
		o.countOutcome(outcomeMatched)
		return outcomeMatched
	}
	o.countOutcome(outcomeUnmatched)
	return outcomeUnmatched
}

func (o *Orchestrator) download(ctx context.Context, record *store.CheckRecord) (*store.PDFArtifact, bool, error) {
	ctx = services.WithStage(ctx, "download")

	result, err := o.collab.Fetcher.Fetch(ctx, portal.Lookup{
		GUID:          record.GUID,
		AccountNumber: record.AccountNumber,
		CheckNumber:   record.CheckNumber,
		Amount:        record.Amount,
		IssueDate:     record.IssueDate,
	})
	if err != nil {
		return nil, false, err
	}
	if !result.Found {
		return nil, false, nil
	}

	pdf, err := o.store.SavePDF(ctx, record.ID, result.PDF)
	if err != nil {
		return nil, false, err
	}
	if err := o.store.UpdateCheckStatus(ctx, record.ID, store.StatusDownloaded); err != nil {
		return nil, false, err
	}
	logging.WithContext(ctx, o.logger).Debug("document downloaded", logging.Int("bytes", len(pdf.Content)))
	return pdf, true, nil
}

func (o *Orchestrator) convert(ctx context.Context, record *store.CheckRecord, pdf *store.PDFArtifact) ([]*store.ImageArtifact, error) {
	ctx = services.WithStage(ctx, "convert")

	pages, err := o.collab.Converter.Convert(ctx, pdf.Content)
	if err != nil {
		return nil, err
	}

	images := make([]*store.ImageArtifact, 0, len(pages))
	for _, page := range pages {
		image := &store.ImageArtifact{
			CheckID: record.ID,
			PDFID:   pdf.ID,
			Page:    page.Number,
			Content: page.PNG,
		}
		if err := o.store.SaveImage(ctx, image); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	if err := o.store.UpdateCheckStatus(ctx, record.ID, store.StatusConverted); err != nil {
		return nil, err
	}
	logging.WithContext(ctx, o.logger).Debug("pdf converted", logging.Int("pages", len(images)))
	return images, nil
}

func (o *Orchestrator) extract(ctx context.Context, record *store.CheckRecord, images []*store.ImageArtifact) ([]*store.OCRResult, error) {
	ctx = services.WithStage(ctx, "extract")

	results := make([]*store.OCRResult, 0, len(images))
	for _, image := range images {
		text, err := o.collab.OCR.ExtractText(ctx, image.Content)
		if err != nil {
			return nil, err
		}
		result := &store.OCRResult{
			ImageID:       image.ID,
			Preprocessing: ocr.PreprocessingNone,
			ExtractedText: text,
		}
		if err := o.store.SaveOCRResult(ctx, result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := o.store.UpdateCheckStatus(ctx, record.ID, store.StatusTextExtracted); err != nil {
		return nil, err
	}
	return results, nil
}

// matchPayees records a verdict per extraction result and reports whether any
// of them found the payee.
func (o *Orchestrator) matchPayees(ctx context.Context, record *store.CheckRecord, results []*store.OCRResult) (bool, error) {
	ctx = services.WithStage(ctx, "match")
	payees := record.Payees()

	anyMatched := false
	for _, result := range results {
		outcome := o.collab.Matcher.MatchPayees(payees, result.ExtractedText)
		verdict := store.PayeeMatchNo
		if outcome.Matched {
			verdict = store.PayeeMatchYes
			anyMatched = true
		}
		if err := o.store.SetPayeeMatch(ctx, result.ID, verdict); err != nil {
			return false, err
		}
		if o.metrics != nil {
			o.metrics.PayeeVerdict(verdict)
		}
		if best, ok := outcome.Best(); ok {
			logging.WithContext(ctx, o.logger).Info("payee matched",
				logging.String("payee", best.Payee),
				logging.String("evidence", best.Evidence))
		}
	}

	if err := o.store.UpdateCheckStatus(ctx, record.ID, store.StatusPayeeMatchAttempted); err != nil {
		return false, err
	}
	return anyMatched, nil
}

func (o *Orchestrator) fail(ctx context.Context, record *store.CheckRecord, cause error) string {
	reason := strings.TrimSpace(cause.Error())
	if err := o.store.MarkCheckFailed(ctx, record.ID, reason); err != nil {
		logging.WithContext(ctx, o.logger).Error("failed to record failure", logging.Error(err))
	}
	logging.WithContext(ctx, o.logger).Error("record failed",
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause))
	o.countOutcome(outcomeFailed)
	return outcomeFailed
}

func (o *Orchestrator) countOutcome(outcome string) {
	if o.metrics != nil {
		o.metrics.RecordProcessed(outcome)
	}
}
