// Package ocr extracts text from check page images using the tesseract
// binary. Empty extraction output is a valid result; a blank or illegible
// check yields no text, not an error.
package ocr
