// Package importer loads check records from issuance CSV files into the
// reconciliation queue. Rows are validated independently; a malformed row is
// skipped and reported, never aborts the file.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"recheck/internal/logging"
	"recheck/internal/store"
)

// Required CSV header columns. guid and payee_alt are optional.
var requiredColumns = []string{"account_number", "check_number", "amount", "payee", "issue_date"}

var issueDateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}

// Summary reports what one import did.
type Summary struct {
	Imported int
	Skipped  int
}

// Importer loads issuance files into the store.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// New builds an importer.
func New(st *store.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{store: st, logger: logging.NewComponentLogger(logger, "importer")}
}

// ImportFile reads a CSV issuance file and inserts one pending check record
// per valid row. Rows that fail validation or collide with an already
// imported guid are counted as skipped.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open issuance file: %w", err)
	}
	defer file.Close()

	summary, err := i.importReader(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	i.logger.Info("issuance file imported",
		logging.String("path", path),
		logging.Int("imported", summary.Imported),
		logging.Int("skipped", summary.Skipped))
	return summary, nil
}

func (i *Importer) importReader(ctx context.Context, r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("issuance file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			i.logger.Warn("skipping malformed row", logging.Int("line", line), logging.Error(err))
			summary.Skipped++
			continue
		}

		record, err := buildRecord(columns, row)
		if err != nil {
			i.logger.Warn("skipping invalid row", logging.Int("line", line), logging.Error(err))
			summary.Skipped++
			continue
		}
		if err := i.store.InsertCheck(ctx, record); err != nil {
			i.logger.Warn("skipping row", logging.Int("line", line), logging.Error(err))
			summary.Skipped++
			continue
		}
		summary.Imported++
	}
	return summary, nil
}

// mapColumns resolves header names to indexes. Header matching is
// case-insensitive and tolerates surrounding whitespace.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for index, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = index
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("issuance file is missing column %q", required)
		}
	}
	return columns, nil
}

func buildRecord(columns map[string]int, row []string) (*store.CheckRecord, error) {
	field := func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[index])
	}

	amount, err := strconv.ParseFloat(field("amount"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", field("amount"), err)
	}

	issueDate, err := parseIssueDate(field("issue_date"))
	if err != nil {
		return nil, err
	}

	guid := field("guid")
	if guid == "" {
		guid = uuid.NewString()
	}

	record := &store.CheckRecord{
		GUID:          guid,
		AccountNumber: field("account_number"),
		CheckNumber:   field("check_number"),
		Amount:        amount,
		Payee:         field("payee"),
		PayeeAlt:      field("payee_alt"),
		IssueDate:     issueDate,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

func parseIssueDate(value string) (time.Time, error) {
	for _, layout := range issueDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse issue date %q", value)
}
