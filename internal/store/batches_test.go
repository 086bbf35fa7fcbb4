package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func seedPending(t *testing.T, s *Store, count int) []*CheckRecord {
	t.Helper()
	records := make([]*CheckRecord, 0, count)
	for i := 0; i < count; i++ {
		record := newTestCheck(fmt.Sprintf("guid-claim-%03d", i))
		record.CheckNumber = fmt.Sprintf("%04d", 1000+i)
		if err := s.InsertCheck(context.Background(), record); err != nil {
			t.Fatalf("seed check %d: %v", i, err)
		}
		records = append(records, record)
	}
	return records
}

func TestCreateAndClaimBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPending(t, s, 7)

	batch, claimed, err := s.CreateAndClaimBatch(ctx, 5)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if batch.Status != BatchInProgress {
		t.Fatalf("expected batch in_progress, got %s", batch.Status)
	}
	if len(claimed) != 5 {
		t.Fatalf("expected 5 claimed records, got %d", len(claimed))
	}
	for _, record := range claimed {
		if record.Status != StatusInProgress {
			t.Fatalf("record %s not in_progress: %s", record.ID, record.Status)
		}
		if record.BatchID != batch.ID {
			t.Fatalf("record %s not attached to batch", record.ID)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[StatusPending] != 2 {
		t.Fatalf("expected 2 records left pending, got %d", stats[StatusPending])
	}
}

func TestCreateAndClaimBatchFewerThanLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPending(t, s, 3)

	_, claimed, err := s.CreateAndClaimBatch(ctx, 5)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if len(claimed) != 3 {
		t.Fatalf("expected all 3 pending records claimed, got %d", len(claimed))
	}
}

func TestCreateAndClaimBatchEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch, claimed, err := s.CreateAndClaimBatch(ctx, 5)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if batch == nil {
		t.Fatal("expected batch row even with nothing pending")
	}
	if len(claimed) != 0 {
		t.Fatalf("expected no claimed records, got %d", len(claimed))
	}

	got, err := s.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got == nil {
		t.Fatal("expected persisted batch")
	}
}

func TestCreateAndClaimBatchRejectsBadLimit(t *testing.T) {
	s := openTestStore(t)

	if _, _, err := s.CreateAndClaimBatch(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestConcurrentClaimsNeverShareRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPending(t, s, 20)

	const claimers = 4
	var wg sync.WaitGroup
	claimedIDs := make([][]string, claimers)
	errs := make([]error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, records, err := s.CreateAndClaimBatch(ctx, 5)
			if err != nil {
				errs[slot] = err
				return
			}
			for _, record := range records {
				claimedIDs[slot] = append(claimedIDs[slot], record.ID)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("claimer %d: %v", i, err)
		}
	}

	seen := make(map[string]int)
	total := 0
	for slot, ids := range claimedIDs {
		for _, id := range ids {
			if prev, ok := seen[id]; ok {
				t.Fatalf("record %s claimed by both claimer %d and %d", id, prev, slot)
			}
			seen[id] = slot
			total++
		}
	}
	if total != 20 {
		t.Fatalf("expected all 20 records claimed exactly once, got %d", total)
	}
}

func TestCompleteBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPending(t, s, 2)

	batch, _, err := s.CreateAndClaimBatch(ctx, 2)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}
	if err := s.CompleteBatch(ctx, batch.ID, 1); err != nil {
		t.Fatalf("complete batch: %v", err)
	}

	got, err := s.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Status != BatchCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.FailedRecords != 1 {
		t.Fatalf("expected 1 failed record, got %d", got.FailedRecords)
	}

	// Completing again is harmless.
	if err := s.CompleteBatch(ctx, batch.ID, 1); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
}

func TestMarkBatchProcessed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedPending(t, s, 3)

	batch, claimed, err := s.CreateAndClaimBatch(ctx, 3)
	if err != nil {
		t.Fatalf("claim batch: %v", err)
	}

	// Two records finish matching, one fails mid-pipeline.
	for _, record := range claimed[:2] {
		for _, next := range []Status{StatusDownloaded, StatusConverted, StatusTextExtracted, StatusPayeeMatchAttempted} {
			if err := s.UpdateCheckStatus(ctx, record.ID, next); err != nil {
				t.Fatalf("advance %s to %s: %v", record.ID, next, err)
			}
		}
	}
	if err := s.MarkCheckFailed(ctx, claimed[2].ID, "conversion error"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	promoted, err := s.MarkBatchProcessed(ctx, batch.ID)
	if err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if promoted != 2 {
		t.Fatalf("expected 2 promoted records, got %d", promoted)
	}

	records, err := s.ChecksByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("checks by batch: %v", err)
	}
	for _, record := range records {
		if record.ID == claimed[2].ID {
			if record.Status != StatusFailed {
				t.Fatalf("failed record changed status: %s", record.Status)
			}
			continue
		}
		if record.Status != StatusProcessed {
			t.Fatalf("record %s not processed: %s", record.ID, record.Status)
		}
	}
}

func TestListBatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := s.CreateAndClaimBatch(ctx, 1); err != nil {
			t.Fatalf("claim batch %d: %v", i, err)
		}
	}

	batches, err := s.ListBatches(ctx, 0)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}

	limited, err := s.ListBatches(ctx, 2)
	if err != nil {
		t.Fatalf("list batches limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(limited))
	}
}
