// Package portal fetches check-image PDFs from the bank's document portal.
// A Session holds an authenticated HTTP client; Fetch retrieves one document
// per check lookup and distinguishes missing documents from transport
// failures so callers can decide which errors are terminal.
package portal
