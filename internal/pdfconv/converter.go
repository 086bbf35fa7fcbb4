package pdfconv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"recheck/internal/config"
	"recheck/internal/services"
)

// Page is one rendered PDF page.
type Page struct {
	Number int
	PNG    []byte
}

// Converter renders a PDF document to page images.
type Converter interface {
	Convert(ctx context.Context, pdf []byte) ([]Page, error)
}

// Runner invokes pdftoppm for each conversion. Pages are rasterized to PNG at
// the configured resolution.
type Runner struct {
	binary string
	dpi    int
}

// NewRunner builds a converter from configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		binary: cfg.Tools.Pdftoppm,
		dpi:    cfg.Tools.DPI,
	}
}

var pageSuffix = regexp.MustCompile(`-(\d+)\.png$`)

// Convert writes the PDF to a scratch directory, runs pdftoppm over it, and
// returns the rendered pages in page order. A PDF that yields no pages is
// treated as malformed input.
func (r *Runner) Convert(ctx context.Context, pdf []byte) ([]Page, error) {
	if len(pdf) == 0 {
		return nil, services.Wrap(services.ErrValidation, "convert", "pdftoppm", "pdf content is empty", nil)
	}

	workDir, err := os.MkdirTemp("", "recheck-convert-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inputPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	outputPrefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, r.binary, "-png", "-r", strconv.Itoa(r.dpi), inputPath, outputPrefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "convert", "pdftoppm", "conversion cancelled", ctx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, services.Wrap(services.ErrExternalTool, "convert", "pdftoppm", detail, err)
	}

	pages, err := collectPages(workDir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, services.Wrap(services.ErrValidation, "convert", "pdftoppm", "pdf produced no pages", nil)
	}
	return pages, nil
}

func collectPages(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scratch directory: %w", err)
	}

	var pages []Page
	for _, entry := range entries {
		matches := pageSuffix.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		number, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read rendered page %s: %w", entry.Name(), err)
		}
		pages = append(pages, Page{Number: number, PNG: content})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}
