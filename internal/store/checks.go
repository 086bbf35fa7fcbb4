package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recheck/internal/services"
)

const checkColumns = "id, guid, account_number, check_number, amount, payee, payee_alt, issue_date, status, batch_id, error_message, created_at, updated_at"

const issueDateLayout = "2006-01-02"

// InsertCheck persists a new check record in status pending. A missing ID is
// assigned; GUID must be supplied by the caller (externally-sourced identity).
func (s *Store) InsertCheck(ctx context.Context, record *CheckRecord) error {
	if record == nil {
		return errors.New("check record is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = StatusPending
	}
	if err := record.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO checks (`+checkColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.GUID,
		record.AccountNumber,
		record.CheckNumber,
		record.Amount,
		record.Payee,
		nullableString(record.PayeeAlt),
		record.IssueDate.Format(issueDateLayout),
		record.Status,
		nullableString(record.BatchID),
		nullableString(record.ErrorMessage),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

// GetCheck fetches a check record by identifier. Returns nil when absent.
func (s *Store) GetCheck(ctx context.Context, id string) (*CheckRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+checkColumns+` FROM checks WHERE id = ?`, id)
	record, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get check: %w", err)
	}
	return record, nil
}

// ChecksByStatus returns check records matching a status in claim order.
func (s *Store) ChecksByStatus(ctx context.Context, status Status) ([]*CheckRecord, error) {
	return s.queryChecks(ctx, `SELECT `+checkColumns+` FROM checks WHERE status = ? ORDER BY created_at, id`, status)
}

// ChecksByBatch returns the check records attached to a batch in claim order.
func (s *Store) ChecksByBatch(ctx context.Context, batchID string) ([]*CheckRecord, error) {
	return s.queryChecks(ctx, `SELECT `+checkColumns+` FROM checks WHERE batch_id = ? ORDER BY created_at, id`, batchID)
}

// UpdateCheckStatus advances a check record to the given status. The
// transition must move forward through the state machine; failed is reachable
// from any non-terminal state.
func (s *Store) UpdateCheckStatus(ctx context.Context, id string, status Status) error {
	record, err := s.GetCheck(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return services.Wrap(services.ErrNotFound, "store", "update status", fmt.Sprintf("check %s", id), nil)
	}
	if !record.Status.CanTransition(status) {
		return fmt.Errorf("update status: check %s cannot move %s -> %s", id, record.Status, status)
	}
	_, err = s.execWithRetry(
		ctx,
		`UPDATE checks SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update check status: %w", err)
	}
	return nil
}

// MarkCheckFailed moves a record to the failed terminal state, retaining the
// failure reason for diagnostics.
func (s *Store) MarkCheckFailed(ctx context.Context, id, reason string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE checks SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(reason),
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark check failed: %w", err)
	}
	return nil
}

// MarkBatchProcessed promotes a batch's fully matched records to the
// processed terminal state.
func (s *Store) MarkBatchProcessed(ctx context.Context, batchID string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE checks SET status = ?, updated_at = ? WHERE batch_id = ? AND status = ?`,
		StatusProcessed,
		timestamp(time.Now()),
		batchID,
		StatusPayeeMatchAttempted,
	)
	if err != nil {
		return 0, fmt.Errorf("mark batch processed: %w", err)
	}
	return res.RowsAffected()
}

// CountFailed counts records in a batch that ended failed.
func (s *Store) CountFailed(ctx context.Context, batchID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM checks WHERE batch_id = ? AND status = ?`,
		batchID,
		StatusFailed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed records: %w", err)
	}
	return count, nil
}

// Stats returns a count of check records grouped by status.
func (s *Store) Stats(ctx context.Context) (StatusCounts, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM checks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("check stats: %w", err)
	}
	defer rows.Close()

	stats := make(StatusCounts)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (s *Store) queryChecks(ctx context.Context, query string, args ...any) ([]*CheckRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var records []*CheckRecord
	for rows.Next() {
		record, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanCheck(scanner interface{ Scan(dest ...any) error }) (*CheckRecord, error) {
	var (
		id           string
		guid         string
		account      string
		checkNumber  string
		amount       float64
		payee        string
		payeeAlt     sql.NullString
		issueDateRaw string
		statusStr    string
		batchID      sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&guid,
		&account,
		&checkNumber,
		&amount,
		&payee,
		&payeeAlt,
		&issueDateRaw,
		&statusStr,
		&batchID,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &CheckRecord{
		ID:            id,
		GUID:          guid,
		AccountNumber: account,
		CheckNumber:   checkNumber,
		Amount:        amount,
		Payee:         payee,
		PayeeAlt:      payeeAlt.String,
		Status:        Status(statusStr),
		BatchID:       batchID.String,
		ErrorMessage:  errorMessage.String,
	}
	if issued, err := time.Parse(issueDateLayout, issueDateRaw); err == nil {
		record.IssueDate = issued
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}
