// Package extract defines the value types that flow through the
// extraction pipeline: requests, options, results, and error codes.
package extract

import (
	"fmt"
	"net/url"
	"time"
)

// Markdown flavors accepted by the converter.
const (
	FlavorGitHub     = "github"
	FlavorCommonMark = "commonmark"
	FlavorPlain      = "plain"
)

// Option bounds. Values outside these ranges are rejected before
// admission.
const (
	MinContentLength = 1000
	MaxContentLength = 500000
	MinTimeoutMs     = 1000
	MaxTimeoutMs     = 30000

	DefaultContentLength = 100000
	DefaultTimeoutMs     = 10000
)

// Options control a single extraction call (value type).
type Options struct {
	IncludeImages    bool
	IncludeMetadata  bool
	MarkdownFlavor   string
	MaxContentLength int
	TimeoutMs        int
}

// DefaultOptions returns the options applied when the caller omits them.
func DefaultOptions() Options {
	return Options{
		IncludeMetadata:  true,
		MarkdownFlavor:   FlavorGitHub,
		MaxContentLength: DefaultContentLength,
		TimeoutMs:        DefaultTimeoutMs,
	}
}

// Normalize fills zero values with defaults and validates ranges.
func (o *Options) Normalize() error {
	if o.MarkdownFlavor == "" {
		o.MarkdownFlavor = FlavorGitHub
	}
	switch o.MarkdownFlavor {
	case FlavorGitHub, FlavorCommonMark, FlavorPlain:
	default:
		return fmt.Errorf("markdown_flavor must be one of github, commonmark, plain")
	}
	if o.MaxContentLength == 0 {
		o.MaxContentLength = DefaultContentLength
	}
	if o.MaxContentLength < MinContentLength || o.MaxContentLength > MaxContentLength {
		return fmt.Errorf("max_content_length must be between %d and %d", MinContentLength, MaxContentLength)
	}
	if o.TimeoutMs == 0 {
		o.TimeoutMs = DefaultTimeoutMs
	}
	if o.TimeoutMs < MinTimeoutMs || o.TimeoutMs > MaxTimeoutMs {
		return fmt.Errorf("timeout_ms must be between %d and %d", MinTimeoutMs, MaxTimeoutMs)
	}
	return nil
}

// Timeout returns the option as a duration.
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

// Request is one extraction call after option normalization.
type Request struct {
	ID      string
	URL     string
	Options Options
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is not parseable")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url host is required")
	}
	return nil
}

// Image position labels, assigned by where the image sits in the
// source document.
const (
	PositionTop    = "top"
	PositionMiddle = "middle"
	PositionBottom = "bottom"
)

// Metadata holds document metadata pulled from the page.
type Metadata struct {
	Title       string
	Author      string
	PublishedAt string
	SiteName    string
	Language    string
	Excerpt     string
}

// Image is one image reference found in the page.
type Image struct {
	URL      string
	Alt      string
	Position string
}

// Result is a successful extraction (value type).
type Result struct {
	Markdown        string
	TextLength      int
	EstimatedTokens int
	ContentSizeKB   float64
	Truncated       bool
	IsPDF           bool
	Metadata        *Metadata
	Images          []Image
}

// TruncationMarker is appended to markdown cut at MaxContentLength.
const TruncationMarker = "\n\n[Content truncated...]"

// EstimateTokens approximates the LLM token count of text.
func EstimateTokens(textLength int) int {
	return textLength / 4
}
