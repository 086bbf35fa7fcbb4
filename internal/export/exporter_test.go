package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"recheck/internal/store"
	"recheck/internal/testsupport"
)

func seedExportData(t *testing.T, s *store.Store) (matched, unmatched *store.CheckRecord) {
	t.Helper()
	ctx := context.Background()

	build := func(guid, payee, verdict string) *store.CheckRecord {
		record := testsupport.SeedCheck(t, s, guid, payee)
		image := &store.ImageArtifact{CheckID: record.ID, Page: 1, Content: []byte("png-bytes")}
		if err := s.SaveImage(ctx, image); err != nil {
			t.Fatalf("save image: %v", err)
		}
		result := &store.OCRResult{
			ImageID:       image.ID,
			Preprocessing: "none",
			ExtractedText: "pay to " + payee,
			PayeeMatch:    verdict,
		}
		if err := s.SaveOCRResult(ctx, result); err != nil {
			t.Fatalf("save ocr result: %v", err)
		}
		return record
	}

	return build("g-matched", "John Doe", store.PayeeMatchYes),
		build("g-unmatched", "Jane Smith", store.PayeeMatchNo)
}

func TestExportWritesCSVAndImages(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	seedExportData(t, s)

	dir := t.TempDir()
	summary, err := New(s, nil).Export(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if summary.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", summary.Rows)
	}
	if summary.Images != 2 {
		t.Fatalf("expected 2 images, got %d", summary.Images)
	}

	file, err := os.Open(summary.CSVPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "guid" {
		t.Fatalf("unexpected header %v", records[0])
	}

	if _, err := os.Stat(filepath.Join(dir, "images", "g-matched-p1.png")); err != nil {
		t.Fatalf("expected matched image file: %v", err)
	}
}

func TestExportMismatchesOnly(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, unmatched := seedExportData(t, s)

	dir := t.TempDir()
	summary, err := New(s, nil).Export(context.Background(), dir, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if summary.Rows != 1 {
		t.Fatalf("expected 1 mismatch row, got %d", summary.Rows)
	}

	if _, err := os.Stat(filepath.Join(dir, "images", unmatched.GUID+"-p1.png")); err != nil {
		t.Fatalf("expected unmatched image file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "images", "g-matched-p1.png")); !os.IsNotExist(err) {
		t.Fatal("matched image should not be exported in mismatch mode")
	}
}
