// Package pdfconv renders check-image PDFs to page images using the
// pdftoppm binary from poppler-utils.
package pdfconv
