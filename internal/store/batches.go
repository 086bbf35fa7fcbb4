package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const batchColumns = "id, status, failed_records, created_at, updated_at"

// CreateAndClaimBatch creates a new batch and atomically claims up to limit
// pending check records into it, moving them to in_progress. The claim runs in
// a single transaction so two concurrent claimers can never share a record. A
// batch row is created even when nothing is pending; callers decide what an
// empty batch means.
func (s *Store) CreateAndClaimBatch(ctx context.Context, limit int) (*Batch, []*CheckRecord, error) {
	if limit <= 0 {
		return nil, nil, fmt.Errorf("claim batch: limit must be positive, got %d", limit)
	}

	now := time.Now().UTC()
	batch := &Batch{
		ID:        uuid.NewString(),
		Status:    BatchInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.withTxRetry(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO batches (`+batchColumns+`) VALUES (?, ?, 0, ?, ?)`,
			batch.ID,
			batch.Status,
			timestamp(now),
			timestamp(now),
		); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE checks SET status = ?, batch_id = ?, updated_at = ?
             WHERE id IN (
                 SELECT id FROM checks WHERE status = ? ORDER BY created_at, id LIMIT ?
             )`,
			StatusInProgress,
			batch.ID,
			timestamp(now),
			StatusPending,
			limit,
		); err != nil {
			return fmt.Errorf("claim pending checks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	records, err := s.ChecksByBatch(ctx, batch.ID)
	if err != nil {
		return nil, nil, err
	}
	return batch, records, nil
}

// CompleteBatch marks a batch completed and records how many of its check
// records failed. Completing an already completed batch is a no-op.
func (s *Store) CompleteBatch(ctx context.Context, batchID string, failedRecords int) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE batches SET status = ?, failed_records = ?, updated_at = ? WHERE id = ?`,
		BatchCompleted,
		failedRecords,
		timestamp(time.Now()),
		batchID,
	)
	if err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	return nil
}

// GetBatch fetches a batch by identifier. Returns nil when absent.
func (s *Store) GetBatch(ctx context.Context, id string) (*Batch, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	batch, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return batch, nil
}

// ListBatches returns batches newest first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]*Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

func scanBatch(scanner interface{ Scan(dest ...any) error }) (*Batch, error) {
	var (
		id         string
		statusStr  string
		failed     int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &statusStr, &failed, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	batch := &Batch{
		ID:            id,
		Status:        BatchStatus(statusStr),
		FailedRecords: failed,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		batch.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		batch.UpdatedAt = updated
	}
	return batch, nil
}
