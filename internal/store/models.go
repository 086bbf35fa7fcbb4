package store

import (
	"errors"
	"strings"
	"time"
)

// Status represents the lifecycle of a check record.
type Status string

const (
	StatusPending             Status = "pending"
	StatusInProgress          Status = "in_progress"
	StatusDownloaded          Status = "downloaded"
	StatusConverted           Status = "converted"
	StatusTextExtracted       Status = "text_extracted"
	StatusPayeeMatchAttempted Status = "payee_match_attempted"
	StatusProcessed           Status = "processed"
	StatusFailed              Status = "failed"
)

// BatchStatus represents the lifecycle of a batch.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
)

// Payee match verdicts persisted on OCR results. The column defaults to
// PayeeMatchNo so the value is never NULL.
const (
	PayeeMatchYes = "yes"
	PayeeMatchNo  = "no"
)

// ImageStageRaw tags page images stored straight from conversion, before any
// preprocessing variant.
const ImageStageRaw = "raw"

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusDownloaded,
	StatusConverted,
	StatusTextExtracted,
	StatusPayeeMatchAttempted,
	StatusProcessed,
	StatusFailed,
}

// statusRank orders the forward progression of the state machine. failed sits
// outside the progression as a parallel terminal state.
var statusRank = map[Status]int{
	StatusPending:             0,
	StatusInProgress:          1,
	StatusDownloaded:          2,
	StatusConverted:           3,
	StatusTextExtracted:       4,
	StatusPayeeMatchAttempted: 5,
	StatusProcessed:           6,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	for _, status := range allStatuses {
		if status == normalized {
			return normalized, true
		}
	}
	return "", false
}

// IsTerminal reports whether a status ends automatic processing.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// CanTransition reports whether moving from s to next preserves the
// monotonic forward progression. failed is reachable from any non-terminal
// state; nothing leaves a terminal state.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to > from
}

// CheckRecord is one expected check reconciliation unit.
type CheckRecord struct {
	ID            string
	GUID          string
	AccountNumber string
	CheckNumber   string
	Amount        float64
	Payee         string
	PayeeAlt      string
	IssueDate     time.Time
	Status        Status
	BatchID       string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Payees returns the expected payee names, skipping empty entries.
func (c *CheckRecord) Payees() []string {
	payees := make([]string, 0, 2)
	if strings.TrimSpace(c.Payee) != "" {
		payees = append(payees, c.Payee)
	}
	if strings.TrimSpace(c.PayeeAlt) != "" {
		payees = append(payees, c.PayeeAlt)
	}
	return payees
}

// SetFailed marks the record failed with the given reason.
func (c *CheckRecord) SetFailed(reason string) {
	c.Status = StatusFailed
	c.ErrorMessage = reason
}

// Validate checks the constructor invariants for a new record.
func (c *CheckRecord) Validate() error {
	if strings.TrimSpace(c.GUID) == "" {
		return errors.New("check record: guid is required")
	}
	if strings.TrimSpace(c.AccountNumber) == "" {
		return errors.New("check record: account number is required")
	}
	if strings.TrimSpace(c.CheckNumber) == "" {
		return errors.New("check record: check number is required")
	}
	if c.Amount <= 0 {
		return errors.New("check record: amount must be positive")
	}
	if strings.TrimSpace(c.Payee) == "" {
		return errors.New("check record: payee is required")
	}
	if c.IssueDate.IsZero() {
		return errors.New("check record: issue date is required")
	}
	return nil
}

// Batch is a claimed cohort of check records processed together.
type Batch struct {
	ID            string
	Status        BatchStatus
	FailedRecords int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PDFArtifact is the acquired document for one check record.
type PDFArtifact struct {
	ID        string
	CheckID   string
	Content   []byte
	CreatedAt time.Time
}

// ImageArtifact is one rasterized page (or preprocessing variant) for a
// check record.
type ImageArtifact struct {
	ID        string
	CheckID   string
	PDFID     string
	Page      int
	Stage     string
	Content   []byte
	CreatedAt time.Time
}

// OCRResult is the extracted text plus match verdict for one image.
type OCRResult struct {
	ID            string
	ImageID       string
	Preprocessing string
	ExtractedText string
	PayeeMatch    string
	CreatedAt     time.Time
}

// StatusCounts aggregates check records per status.
type StatusCounts map[Status]int

// Total sums all counts.
func (c StatusCounts) Total() int {
	total := 0
	for _, count := range c {
		total += count
	}
	return total
}
