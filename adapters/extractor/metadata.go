package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/ports"
)

// RegexParser pulls metadata and image references out of raw HTML with
// regular expressions. It trades precision for zero parse overhead;
// swap in a DOM-based parser via ports.MetadataParser if that stops
// being enough.
type RegexParser struct{}

var _ ports.MetadataParser = RegexParser{}

// NewRegexParser returns the default metadata parser.
func NewRegexParser() RegexParser { return RegexParser{} }

var (
	reTitle    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reHTMLLang = regexp.MustCompile(`(?i)<html[^>]*\slang=["']([a-zA-Z-]+)["']`)
	reImg      = regexp.MustCompile(`(?is)<img[^>]*\ssrc=["']([^"']+)["'][^>]*>`)
	reImgAlt   = regexp.MustCompile(`(?is)\salt=["']([^"']*)["']`)
)

// metaContent matches <meta ... content="..."> in either attribute
// order for a name= or property= key.
func metaContent(html, key string) string {
	quoted := regexp.QuoteMeta(key)
	patterns := []string{
		`(?is)<meta[^>]*(?:name|property)=["']` + quoted + `["'][^>]*content=["']([^"']*)["']`,
		`(?is)<meta[^>]*content=["']([^"']*)["'][^>]*(?:name|property)=["']` + quoted + `["']`,
	}
	for _, p := range patterns {
		if m := regexp.MustCompile(p).FindStringSubmatch(html); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ParseMetadata extracts document metadata from raw HTML.
func (RegexParser) ParseMetadata(html string) extract.Metadata {
	md := extract.Metadata{
		Author:      metaContent(html, "author"),
		PublishedAt: metaContent(html, "article:published_time"),
		SiteName:    metaContent(html, "og:site_name"),
		Excerpt:     metaContent(html, "og:description"),
	}
	if md.Excerpt == "" {
		md.Excerpt = metaContent(html, "description")
	}
	if md.Title = metaContent(html, "og:title"); md.Title == "" {
		if m := reTitle.FindStringSubmatch(html); m != nil {
			md.Title = strings.TrimSpace(m[1])
		}
	}
	if m := reHTMLLang.FindStringSubmatch(html); m != nil {
		md.Language = m[1]
	}
	return md
}

// ParseImages extracts image references from raw HTML. Relative URLs
// are resolved against baseURL; each image is labeled top, middle, or
// bottom by where it sits in the document.
func (RegexParser) ParseImages(html, baseURL string) []extract.Image {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	matches := reImg.FindAllStringSubmatchIndex(html, -1)
	var out []extract.Image
	for _, m := range matches {
		tag := html[m[0]:m[1]]
		src := html[m[2]:m[3]]
		if strings.HasPrefix(src, "data:") {
			continue
		}
		if base != nil {
			if u, err := url.Parse(src); err == nil {
				src = base.ResolveReference(u).String()
			}
		}

		alt := ""
		if am := reImgAlt.FindStringSubmatch(tag); am != nil {
			alt = am[1]
		}

		out = append(out, extract.Image{
			URL:      src,
			Alt:      alt,
			Position: positionOf(m[0], len(html)),
		})
	}
	return out
}

// positionOf buckets a document offset into thirds.
func positionOf(offset, total int) string {
	if total == 0 {
		return extract.PositionTop
	}
	switch {
	case offset*3 < total:
		return extract.PositionTop
	case offset*3 < total*2:
		return extract.PositionMiddle
	default:
		return extract.PositionBottom
	}
}
