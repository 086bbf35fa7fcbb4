package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"recheck/internal/config"
	"recheck/internal/logging"
	"recheck/internal/services"
)

// Lookup identifies one check document on the portal.
type Lookup struct {
	GUID          string
	AccountNumber string
	CheckNumber   string
	Amount        float64
	IssueDate     time.Time
}

// FetchResult carries a fetched document. Found is false when the portal has
// no document for the lookup, which is not a transport failure.
type FetchResult struct {
	Found bool
	PDF   []byte
}

// Fetcher retrieves check documents. The pipeline depends on this interface
// so tests can substitute a stub session.
type Fetcher interface {
	Fetch(ctx context.Context, lookup Lookup) (*FetchResult, error)
}

// Session is an authenticated connection to the portal. Open must succeed
// before Fetch; Close ends the portal session best-effort.
type Session struct {
	baseURL      string
	username     string
	password     string
	loginTimeout time.Duration
	fetchTimeout time.Duration
	client       *http.Client
	logger       *slog.Logger
}

// NewSession builds a session from configuration. The session holds its own
// cookie jar so portal authentication state never leaks between runs.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		baseURL:      strings.TrimRight(cfg.Portal.BaseURL, "/"),
		username:     cfg.Portal.Username,
		password:     cfg.Portal.Password,
		loginTimeout: time.Duration(cfg.Portal.LoginTimeout) * time.Second,
		fetchTimeout: time.Duration(cfg.Portal.FetchTimeout) * time.Second,
		client:       &http.Client{Jar: jar},
		logger:       logger,
	}, nil
}

// Open authenticates against the portal login endpoint.
func (s *Session) Open(ctx context.Context) error {
	if s.username == "" || s.password == "" {
		return services.Wrap(services.ErrValidation, "portal", "login", "portal credentials are not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.loginTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("username", s.username)
	form.Set("password", s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrValidation, "portal", "login", "build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return s.classifyTransport("login", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrValidation, "portal", "login", "portal rejected credentials", nil)
	case resp.StatusCode >= 300:
		return services.Wrap(services.ErrTransient, "portal", "login",
			fmt.Sprintf("portal login returned status %d", resp.StatusCode), nil)
	}

	s.logger.Info("portal session established", logging.String("base_url", s.baseURL))
	return nil
}

// Fetch retrieves the PDF for one check. A portal 404 yields Found false with
// no error; transport and server failures are classified so the caller can
// tell retryable conditions from terminal ones.
func (s *Session) Fetch(ctx context.Context, lookup Lookup) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("account", lookup.AccountNumber)
	query.Set("check_number", lookup.CheckNumber)

	endpoint := fmt.Sprintf("%s/documents/%s?%s", s.baseURL, url.PathEscape(lookup.GUID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "download", "fetch", "build fetch request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.classifyTransport("fetch", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return &FetchResult{Found: false}, nil
	case resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		return nil, services.Wrap(services.ErrTransient, "download", "fetch",
			fmt.Sprintf("portal returned status %d for %s", resp.StatusCode, lookup.GUID), nil)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.classifyTransport("fetch", err)
	}
	if len(pdf) == 0 {
		return nil, services.Wrap(services.ErrValidation, "download", "fetch",
			fmt.Sprintf("portal returned an empty document for %s", lookup.GUID), nil)
	}
	return &FetchResult{Found: true, PDF: pdf}, nil
}

// Close ends the portal session. Logout failures are logged, not returned;
// the session cookie expires server-side regardless.
func (s *Session) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.loginTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/logout", nil)
	if err != nil {
		return
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("portal logout failed", logging.Error(err))
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (s *Session) classifyTransport(operation string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, "portal", operation, "portal request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "portal", operation, "portal request failed", err)
}
