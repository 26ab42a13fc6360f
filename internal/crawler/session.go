package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxRedirects    = 5
	maxResponseBody = 10 << 20 // 10 MB cap on fetched pages
	userAgent       = "PageGraphBot/1.0"

	probeTimeout = 5 * time.Second
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// FetchResult captures one page fetch: final status, headers, the raw
// body (capped), and the wall-clock time the request took.
type FetchResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// Session is the pooled HTTP connection shared by the page fetch and
// every follow-up link probe within a single analysis. It is acquired at
// analysis start and must be closed on every exit path; it is never
// reused across analyses.
type Session struct {
	client    *http.Client
	transport *http.Transport
}

// NewSession returns a Session whose transport blocks connections to
// private/reserved IP ranges and validates redirect chains.
func NewSession() *Session {
	return newSession(&http.Transport{
		DialContext:         safeDialer().DialContext,
		MaxConnsPerHost:     10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	})
}

func newSession(transport *http.Transport) *Session {
	return &Session{
		transport: transport,
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

// safeRedirectPolicy validates redirect targets and limits the redirect chain length.
func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Close releases the session's pooled connections.
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}

// FetchPage retrieves the page at targetURL, following redirects, and
// returns the raw content with timing and header metadata. HTTP error
// statuses are not treated as fetch failures; only network-level errors
// are returned as errors.
func (s *Session) FetchPage(ctx context.Context, targetURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Elapsed:    time.Since(start),
	}, nil
}

// CheckStatus issues a lightweight HEAD probe against link, following
// redirects, and returns the final status code. The body is never read.
func (s *Session) CheckStatus(ctx context.Context, link string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
