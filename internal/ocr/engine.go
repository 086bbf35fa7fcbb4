package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"recheck/internal/config"
	"recheck/internal/services"
)

// PreprocessingNone labels text extracted from the image as rendered, with no
// preprocessing applied.
const PreprocessingNone = "none"

// Engine extracts text from a page image.
type Engine interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Runner invokes tesseract for each extraction.
type Runner struct {
	binary string
}

// NewRunner builds an engine from configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{binary: cfg.Tools.Tesseract}
}

// ExtractText writes the image to a scratch file and runs tesseract over it,
// returning the recognized text on stdout. The empty string is a legitimate
// result for an image with no legible text.
func (r *Runner) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", services.Wrap(services.ErrValidation, "extract", "tesseract", "image content is empty", nil)
	}

	workDir, err := os.MkdirTemp("", "recheck-ocr-")
	if err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	imagePath := filepath.Join(workDir, "page.png")
	if err := os.WriteFile(imagePath, image, 0o600); err != nil {
		return "", fmt.Errorf("write scratch image: %w", err)
	}

	// "stdout" as the output base makes tesseract print text instead of
	// writing a file.
	cmd := exec.CommandContext(ctx, r.binary, imagePath, "stdout")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrTimeout, "extract", "tesseract", "extraction cancelled", ctx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", services.Wrap(services.ErrExternalTool, "extract", "tesseract", detail, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
