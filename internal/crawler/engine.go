package crawler

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/pagegraph/pagegraph/internal/model"
	"github.com/pagegraph/pagegraph/internal/platform/errs"
)

const defaultFetchTimeout = 10 * time.Second

// Engine runs the full single-page analysis pipeline: fetch, parse,
// extract, status-check, score. Everything inside one analysis is
// strictly sequential; a fresh pooled session is acquired per analysis
// and released on every exit path.
type Engine struct {
	timeout      time.Duration
	logger       *slog.Logger
	newTransport func() *http.Transport
}

// NewEngine returns an Engine with the given default fetch timeout.
func NewEngine(timeout time.Duration, logger *slog.Logger) *Engine {
	return newEngine(timeout, logger, func() *http.Transport {
		return &http.Transport{
			DialContext:         safeDialer().DialContext,
			MaxConnsPerHost:     10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	})
}

// newEngine lets tests substitute a transport without SSRF blocking so
// httptest servers on localhost stay reachable.
func newEngine(timeout time.Duration, logger *slog.Logger, newTransport func() *http.Transport) *Engine {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Engine{timeout: timeout, logger: logger, newTransport: newTransport}
}

// Analyze runs one analysis. Invalid input is returned as an error; a
// network-level fetch failure terminates the analysis with a
// Success=false envelope, no page info, and an empty link set. HTTP
// error statuses on the page itself do not abort: the page is still
// parsed and scored.
func (e *Engine) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
			Cause:   err,
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only http and https URLs are supported.",
		}
	}

	timeout := e.timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	session := newSession(e.newTransport())
	defer session.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetch, err := session.FetchPage(fetchCtx, parsed.String())
	if err != nil {
		e.logger.Warn("page fetch failed", "url", req.URL, "error", err)
		return &model.AnalysisResult{
			Success: false,
			Error:   err.Error(),
			Links:   []model.LinkRecord{},
		}, nil
	}

	page, err := ParsePage(fetch.Body, parsed)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "Failed to parse the HTML content.",
			Cause:   err,
		}
	}

	links := page.ExtractLinks()
	checked := NewStatusChecker(session).CheckAll(ctx, links)

	info := &model.PageInfo{
		StatusCode:      fetch.StatusCode,
		Title:           page.Title(),
		MetaDescription: page.MetaDescription(),
		ContentType:     fetch.Header.Get("Content-Type"),
		ResponseTime:    math.Round(fetch.Elapsed.Seconds()*100) / 100,
		PageSize:        len(fetch.Body),
		Structure:       page.StructureTree(),
		StructuredData:  page.StructuredData(),
		Audit:           Audit(page, fetch, parsed),
	}

	var internal, external int
	for _, link := range links {
		if link.Type == model.LinkInternal {
			internal++
		} else {
			external++
		}
	}

	e.logger.Info("analysis complete",
		"url", req.URL,
		"status", fetch.StatusCode,
		"total_links", len(links),
		"checked_links", checked,
		"audit_overall", info.Audit.Overall,
	)

	return &model.AnalysisResult{
		Success:       true,
		PageInfo:      info,
		Links:         links,
		TotalLinks:    len(links),
		InternalLinks: internal,
		ExternalLinks: external,
	}, nil
}
