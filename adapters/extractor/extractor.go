package extractor

import (
	"context"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"

	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/ports"
)

// Readability turns a URL into cleaned Markdown: fetch, readability
// pass, Markdown conversion, optional metadata and images.
type Readability struct {
	fetcher *Fetcher
	parser  ports.MetadataParser
}

var _ ports.Extractor = (*Readability)(nil)

// New builds the extractor. A nil parser falls back to the regex one.
func New(fetcher *Fetcher, parser ports.MetadataParser) *Readability {
	if parser == nil {
		parser = NewRegexParser()
	}
	return &Readability{fetcher: fetcher, parser: parser}
}

// Extract implements ports.Extractor. The caller's context carries the
// fetch deadline; all failures are returned as *extract.Error.
func (r *Readability) Extract(ctx context.Context, rawURL string, opts extract.Options) (extract.Result, error) {
	body, isPDF, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return extract.Result{}, err
	}
	if isPDF {
		// PDF bodies need a dedicated parsing pipeline.
		return extract.Result{}, extract.NewError(extract.CodeExtractionFailed, "PDF extraction is not supported")
	}

	html := string(body)
	sizeKB := float64(len(body)) / 1024

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return extract.Result{}, extract.NewError(extract.CodeInvalidURL, "URL is not parseable")
	}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return extract.Result{}, extract.NewError(extract.CodeExtractionFailed, "page could not be parsed into an article")
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return extract.Result{}, extract.NewError(extract.CodeNoContent, "no readable content found on the page")
	}

	markdown, err := r.toMarkdown(article.Content, text, opts.MarkdownFlavor)
	if err != nil {
		return extract.Result{}, extract.NewError(extract.CodeExtractionFailed, "article could not be converted to markdown")
	}

	markdown, truncated := truncate(markdown, opts.MaxContentLength)

	result := extract.Result{
		Markdown:        markdown,
		TextLength:      len(text),
		EstimatedTokens: extract.EstimateTokens(len(text)),
		ContentSizeKB:   sizeKB,
		Truncated:       truncated,
	}

	if opts.IncludeMetadata {
		meta := r.parser.ParseMetadata(html)
		if meta.Title == "" {
			meta.Title = article.Title
		}
		if meta.Author == "" {
			meta.Author = article.Byline
		}
		if meta.SiteName == "" {
			meta.SiteName = article.SiteName
		}
		if meta.Excerpt == "" {
			meta.Excerpt = article.Excerpt
		}
		result.Metadata = &meta
	}
	if opts.IncludeImages {
		result.Images = r.parser.ParseImages(html, rawURL)
	}

	return result, nil
}

func (r *Readability) toMarkdown(articleHTML, text, flavor string) (string, error) {
	if flavor == extract.FlavorPlain {
		return text, nil
	}
	conv := md.NewConverter("", true, nil)
	if flavor == extract.FlavorGitHub {
		conv.Use(plugin.GitHubFlavored())
	}
	out, err := conv.ConvertString(articleHTML)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// truncate cuts s to at most max runes and appends the truncation
// marker when anything was dropped.
func truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]) + extract.TruncationMarker, true
}
