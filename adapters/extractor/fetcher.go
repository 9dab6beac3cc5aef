// Package extractor implements the content-extraction collaborator:
// an HTTP fetcher, a readability-based article extractor, an
// HTML-to-Markdown converter, and a regex metadata parser.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/cleanreader/domain/extract"
)

// DefaultUserAgent is sent on outbound fetches. Many sites serve
// stripped or blocked pages to obvious bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultMaxBodyBytes caps how much of a page is read.
const DefaultMaxBodyBytes = 10 << 20 // 10MB

// FetcherConfig tunes the outbound HTTP client.
type FetcherConfig struct {
	UserAgent    string
	MaxBodyBytes int64
}

// Fetcher retrieves pages with a bounded, connection-pooled client.
// Per-request deadlines come from the caller's context.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewFetcher builds a fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch downloads url and reports whether the response was a PDF.
// Failures come back as *extract.Error so the pipeline can bill and
// report them by code.
func (f *Fetcher) Fetch(ctx context.Context, url string) (body []byte, isPDF bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, extract.NewError(extract.CodeInvalidURL, "URL is not fetchable")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, false, extract.NewError(extract.CodeFetchTimeout, "fetching the URL timed out")
		}
		return nil, false, extract.NewError(extract.CodeFetchFailed, "could not reach the URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, extract.NewError(extract.CodeFetchFailed,
			fmt.Sprintf("target responded with HTTP %d", resp.StatusCode))
	}

	if resp.ContentLength > f.maxBodyBytes {
		return nil, false, extract.NewError(extract.CodeContentTooLarge, "page exceeds the size limit")
	}

	// Read one byte past the cap to distinguish at-limit from over.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, false, extract.NewError(extract.CodeFetchTimeout, "fetching the URL timed out")
		}
		return nil, false, extract.NewError(extract.CodeFetchFailed, "reading the response failed")
	}
	if int64(len(data)) > f.maxBodyBytes {
		return nil, false, extract.NewError(extract.CodeContentTooLarge, "page exceeds the size limit")
	}

	ct := resp.Header.Get("Content-Type")
	return data, strings.Contains(ct, "application/pdf"), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
