package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recheck/internal/services"
)

// SavePDF stores the downloaded PDF bytes for a check record.
func (s *Store) SavePDF(ctx context.Context, checkID string, content []byte) (*PDFArtifact, error) {
	artifact := &PDFArtifact{
		ID:        uuid.NewString(),
		CheckID:   checkID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO pdfs (id, check_id, content, created_at) VALUES (?, ?, ?, ?)`,
		artifact.ID,
		artifact.CheckID,
		artifact.Content,
		timestamp(artifact.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("save pdf: %w", err)
	}
	return artifact, nil
}

// PDFByCheck returns the stored PDF for a check record, or nil when absent.
func (s *Store) PDFByCheck(ctx context.Context, checkID string) (*PDFArtifact, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, check_id, content, created_at FROM pdfs WHERE check_id = ? ORDER BY created_at DESC LIMIT 1`,
		checkID,
	)

	artifact := &PDFArtifact{}
	var createdRaw string
	err := row.Scan(&artifact.ID, &artifact.CheckID, &artifact.Content, &createdRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pdf by check: %w", err)
	}
	if created, perr := parseTimeString(createdRaw); perr == nil {
		artifact.CreatedAt = created
	}
	return artifact, nil
}

// SaveImage stores a rendered page image for a check record.
func (s *Store) SaveImage(ctx context.Context, image *ImageArtifact) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	if image.Stage == "" {
		image.Stage = ImageStageRaw
	}
	image.CreatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO images (id, check_id, pdf_id, page, stage, content, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		image.ID,
		image.CheckID,
		nullableString(image.PDFID),
		image.Page,
		image.Stage,
		image.Content,
		timestamp(image.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// ImagesByCheck returns a check's page images ordered by page number.
func (s *Store) ImagesByCheck(ctx context.Context, checkID string) ([]*ImageArtifact, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, check_id, pdf_id, page, stage, content, created_at
         FROM images WHERE check_id = ? ORDER BY page, created_at`,
		checkID,
	)
	if err != nil {
		return nil, fmt.Errorf("images by check: %w", err)
	}
	defer rows.Close()

	var images []*ImageArtifact
	for rows.Next() {
		image := &ImageArtifact{}
		var pdfID sql.NullString
		var createdRaw string
		if err := rows.Scan(&image.ID, &image.CheckID, &pdfID, &image.Page, &image.Stage, &image.Content, &createdRaw); err != nil {
			return nil, err
		}
		image.PDFID = pdfID.String
		if created, perr := parseTimeString(createdRaw); perr == nil {
			image.CreatedAt = created
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// SaveOCRResult stores the text extracted from an image. One result per
// image and preprocessing variant; re-running a variant replaces its text.
// The result's ID is set to the surviving row, which on a re-run is the
// original row's id rather than the fresh one.
func (s *Store) SaveOCRResult(ctx context.Context, result *OCRResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.PayeeMatch == "" {
		result.PayeeMatch = PayeeMatchNo
	}
	result.CreatedAt = time.Now().UTC()

	ctx = ensureContext(ctx)
	var survivorID string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(
			ctx,
			`INSERT INTO ocr_results (id, image_id, preprocessing, extracted_text, payee_match, created_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(image_id, preprocessing) DO UPDATE SET
                 extracted_text = excluded.extracted_text,
                 payee_match = excluded.payee_match
             RETURNING id`,
			result.ID,
			result.ImageID,
			result.Preprocessing,
			result.ExtractedText,
			result.PayeeMatch,
			timestamp(result.CreatedAt),
		).Scan(&survivorID)
	})
	if err != nil {
		return fmt.Errorf("save ocr result: %w", err)
	}
	result.ID = survivorID
	return nil
}

// OCRResultsByImage returns the OCR results recorded for an image.
func (s *Store) OCRResultsByImage(ctx context.Context, imageID string) ([]*OCRResult, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, image_id, preprocessing, extracted_text, payee_match, created_at
         FROM ocr_results WHERE image_id = ? ORDER BY created_at`,
		imageID,
	)
	if err != nil {
		return nil, fmt.Errorf("ocr results by image: %w", err)
	}
	defer rows.Close()

	var results []*OCRResult
	for rows.Next() {
		result, err := scanOCRResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// SetPayeeMatch records the match verdict for an OCR result. Updating an
// unknown result is an error rather than a silent no-op.
func (s *Store) SetPayeeMatch(ctx context.Context, resultID, verdict string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ocr_results SET payee_match = ? WHERE id = ?`,
		verdict,
		resultID,
	)
	if err != nil {
		return fmt.Errorf("set payee match: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "set payee match", fmt.Sprintf("ocr result %s", resultID), nil)
	}
	return nil
}

// ReconciliationRow joins a check record with one of its OCR results for
// reporting and export.
type ReconciliationRow struct {
	Check     *CheckRecord
	OCRResult *OCRResult
}

// ReconciliationRows returns every check that reached OCR joined with its
// extraction results. When mismatchesOnly is set, only checks whose payee
// matched on no page at all are returned; a check that matched anywhere is
// reconciled and excluded entirely.
func (s *Store) ReconciliationRows(ctx context.Context, mismatchesOnly bool) ([]*ReconciliationRow, error) {
	query := `SELECT c.id, r.id, r.image_id, r.preprocessing, r.extracted_text, r.payee_match, r.created_at
              FROM checks c
              JOIN images i ON i.check_id = c.id
              JOIN ocr_results r ON r.image_id = i.id`
	if mismatchesOnly {
		query += ` WHERE NOT EXISTS (
                  SELECT 1 FROM ocr_results rm
                  JOIN images im ON im.id = rm.image_id
                  WHERE im.check_id = c.id AND rm.payee_match = ?)`
	}
	query += ` ORDER BY c.created_at, c.id, i.page`

	var args []any
	if mismatchesOnly {
		args = append(args, PayeeMatchYes)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("reconciliation rows: %w", err)
	}
	defer rows.Close()

	type joined struct {
		checkID string
		result  *OCRResult
	}
	var flat []joined
	for rows.Next() {
		var checkID string
		result := &OCRResult{}
		var createdRaw string
		if err := rows.Scan(&checkID, &result.ID, &result.ImageID, &result.Preprocessing, &result.ExtractedText, &result.PayeeMatch, &createdRaw); err != nil {
			return nil, err
		}
		if created, perr := parseTimeString(createdRaw); perr == nil {
			result.CreatedAt = created
		}
		flat = append(flat, joined{checkID: checkID, result: result})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	checks := make(map[string]*CheckRecord)
	out := make([]*ReconciliationRow, 0, len(flat))
	for _, item := range flat {
		check, ok := checks[item.checkID]
		if !ok {
			fetched, err := s.GetCheck(ctx, item.checkID)
			if err != nil {
				return nil, err
			}
			check = fetched
			checks[item.checkID] = check
		}
		out = append(out, &ReconciliationRow{Check: check, OCRResult: item.result})
	}
	return out, nil
}

func scanOCRResult(scanner interface{ Scan(dest ...any) error }) (*OCRResult, error) {
	result := &OCRResult{}
	var createdRaw string
	if err := scanner.Scan(&result.ID, &result.ImageID, &result.Preprocessing, &result.ExtractedText, &result.PayeeMatch, &createdRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		result.CreatedAt = created
	}
	return result, nil
}
