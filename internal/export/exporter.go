// Package export writes reconciliation results to disk for review: a CSV of
// extracted text and verdicts, plus the rendered check images.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"recheck/internal/logging"
	"recheck/internal/store"
)

const resultsFileName = "extracted_data.csv"

var csvHeader = []string{
	"guid", "account_number", "check_number", "amount", "payee", "payee_alt",
	"issue_date", "status", "preprocessing", "payee_match", "extracted_text",
}

// Summary reports what one export wrote.
type Summary struct {
	Rows    int
	Images  int
	CSVPath string
}

// Exporter writes reconciliation output.
type Exporter struct {
	store  *store.Store
	logger *slog.Logger
}

// New builds an exporter.
func New(st *store.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{store: st, logger: logging.NewComponentLogger(logger, "export")}
}

// Export writes the results CSV and check images under dir. When
// mismatchesOnly is set, only checks whose payee never matched are included.
func (e *Exporter) Export(ctx context.Context, dir string, mismatchesOnly bool) (*Summary, error) {
	rows, err := e.store.ReconciliationRows(ctx, mismatchesOnly)
	if err != nil {
		return nil, err
	}

	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	csvPath := filepath.Join(dir, resultsFileName)
	file, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create results file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	summary := &Summary{CSVPath: csvPath}
	exportedChecks := make(map[string]bool)
	for _, row := range rows {
		check := row.Check
		result := row.OCRResult
		record := []string{
			check.GUID,
			check.AccountNumber,
			check.CheckNumber,
			strconv.FormatFloat(check.Amount, 'f', 2, 64),
			check.Payee,
			check.PayeeAlt,
			check.IssueDate.Format("2006-01-02"),
			string(check.Status),
			result.Preprocessing,
			result.PayeeMatch,
			result.ExtractedText,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write row for %s: %w", check.GUID, err)
		}
		summary.Rows++

		if exportedChecks[check.ID] {
			continue
		}
		exportedChecks[check.ID] = true
		written, err := e.writeImages(ctx, imagesDir, check)
		if err != nil {
			return nil, err
		}
		summary.Images += written
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush results file: %w", err)
	}

	e.logger.Info("reconciliation exported",
		logging.String("dir", dir),
		logging.Int("rows", summary.Rows),
		logging.Int("images", summary.Images),
		logging.Bool("mismatches_only", mismatchesOnly))
	return summary, nil
}

func (e *Exporter) writeImages(ctx context.Context, dir string, check *store.CheckRecord) (int, error) {
	images, err := e.store.ImagesByCheck(ctx, check.ID)
	if err != nil {
		return 0, err
	}
	for _, image := range images {
		name := fmt.Sprintf("%s-p%d.png", check.GUID, image.Page)
		if err := os.WriteFile(filepath.Join(dir, name), image.Content, 0o644); err != nil {
			return 0, fmt.Errorf("write image %s: %w", name, err)
		}
	}
	return len(images), nil
}
