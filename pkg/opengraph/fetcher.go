package opengraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	httputil "github.com/lepinkainen/link-preview/pkg/http"
)

// FailureReason tags why a fetch fell back to URL-derived metadata
type FailureReason string

// Failure reasons reported in FetchResult
const (
	FailureNone    FailureReason = ""
	FailureRequest FailureReason = "request"
	FailureTimeout FailureReason = "timeout"
	FailureStatus  FailureReason = "status"
	FailureBody    FailureReason = "body"
)

// FetchResult carries either extracted metadata or the reason the fetch failed.
// Metadata is always populated; on failure it holds the fallback record.
type FetchResult struct {
	Metadata Metadata
	Reason   FailureReason
	Err      error
}

// OK reports whether the page was fetched and extracted
func (r FetchResult) OK() bool {
	return r.Reason == FailureNone
}

// FetcherConfig configures a Fetcher
type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	Extractor Extractor
	Client    *http.Client
	Now       func() time.Time
}

// Fetcher retrieves a single page and extracts its metadata. It never retries.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	extractor Extractor
	now       func() time.Time
}

// NewFetcher creates a new metadata fetcher. A nil config uses the defaults.
func NewFetcher(config *FetcherConfig) *Fetcher {
	if config == nil {
		config = &FetcherConfig{}
	}

	f := &Fetcher{
		client:    config.Client,
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		extractor: config.Extractor,
		now:       config.Now,
	}

	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.extractor == nil {
		f.extractor = RegexExtractor{}
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.client == nil {
		f.client = httputil.NewClient(&httputil.ClientConfig{Timeout: f.timeout}).HTTPClient()
	}

	return f
}

// Fetch returns metadata for targetURL, or a fallback record built from the
// URL when the page cannot be fetched. It never returns an error.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) Metadata {
	result := f.FetchDetailed(ctx, targetURL)
	if !result.OK() {
		slog.Warn("Failed to fetch OpenGraph data", "url", targetURL, "reason", result.Reason, "error", result.Err)
	}
	return result.Metadata
}

// FetchDetailed performs the fetch and reports the failure reason, if any
func (f *Fetcher) FetchDetailed(ctx context.Context, targetURL string) FetchResult {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	data, reason, err := f.fetch(ctx, targetURL)
	if err != nil {
		if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = FailureTimeout
		}
		return FetchResult{Metadata: f.fallback(targetURL), Reason: reason, Err: err}
	}

	slog.Debug("Extracted OpenGraph data", "url", targetURL, "title", data.Title, "hasDescription", data.Description != "")
	return FetchResult{Metadata: data}
}

// fetch issues exactly one GET and extracts metadata from the body
func (f *Fetcher) fetch(ctx context.Context, targetURL string) (Metadata, FailureReason, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return Metadata{}, FailureRequest, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", AcceptHeader)

	slog.Debug("Fetching OpenGraph data", "url", targetURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, FailureRequest, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp) {
		return Metadata{}, FailureStatus, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Metadata{}, FailureBody, fmt.Errorf("failed to read response body: %w", err)
	}

	data := f.extractor.Extract(convertToUTF8(body, httputil.GetContentType(resp)), targetURL)
	data.FetchedAt = f.now().UTC()
	return data, FailureNone, nil
}

// isTimeout reports whether err came from a deadline or client timeout
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// fallback builds the record returned when a page cannot be fetched
func (f *Fetcher) fallback(targetURL string) Metadata {
	domain := DomainName(targetURL)
	return Metadata{
		URL:       targetURL,
		Title:     domain,
		SiteName:  domain,
		FetchedAt: f.now().UTC(),
	}
}

// convertToUTF8 converts a response body to a UTF-8 string, assuming UTF-8
// when the charset cannot be determined
func convertToUTF8(body []byte, contentType string) string {
	utf8Reader, err := charset.NewReader(strings.NewReader(string(body)), contentType)
	if err != nil {
		slog.Debug("Failed to detect charset, assuming UTF-8", "error", err)
		return string(body)
	}

	utf8Bytes, err := io.ReadAll(utf8Reader)
	if err != nil {
		return string(body)
	}
	return string(utf8Bytes)
}
