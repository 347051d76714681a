package opengraph

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor turns a page's HTML into Metadata. FetchedAt is left for the caller.
type Extractor interface {
	Extract(html, sourceURL string) Metadata
}

// RegexExtractor extracts metadata by pattern matching the raw HTML instead of
// building a DOM. It tolerates both attribute orders on meta and link tags.
type RegexExtractor struct{}

var _ Extractor = RegexExtractor{}

var (
	titleSelectors       = []string{"og:title", "twitter:title"}
	descriptionSelectors = []string{"og:description", "twitter:description", "description"}
	imageSelectors       = []string{"og:image", "twitter:image"}
	siteNameSelectors    = []string{"og:site_name"}

	metaPatterns = compileMetaPatterns(titleSelectors, descriptionSelectors, imageSelectors, siteNameSelectors)

	titlePattern = regexp.MustCompile(`(?i)<title[^>]*>([^<]*)</title>`)

	faviconPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<link[^>]*rel=["'](?:shortcut )?icon["'][^>]*href=["']([^"']*)["']`),
		regexp.MustCompile(`(?i)<link[^>]*href=["']([^"']*)["'][^>]*rel=["'](?:shortcut )?icon["']`),
		regexp.MustCompile(`(?i)<link[^>]*rel=["']apple-touch-icon["'][^>]*href=["']([^"']*)["']`),
	}

	entityReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&#x27;", "'",
		"&#x2F;", "/",
		"&nbsp;", " ",
	)
)

// compileMetaPatterns builds the four attribute-order variants for every selector
func compileMetaPatterns(groups ...[]string) map[string][]*regexp.Regexp {
	patterns := make(map[string][]*regexp.Regexp)
	for _, group := range groups {
		for _, selector := range group {
			s := regexp.QuoteMeta(selector)
			patterns[selector] = []*regexp.Regexp{
				regexp.MustCompile(fmt.Sprintf(`(?i)<meta[^>]*property=["']%s["'][^>]*content=["']([^"']*)["']`, s)),
				regexp.MustCompile(fmt.Sprintf(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*property=["']%s["']`, s)),
				regexp.MustCompile(fmt.Sprintf(`(?i)<meta[^>]*name=["']%s["'][^>]*content=["']([^"']*)["']`, s)),
				regexp.MustCompile(fmt.Sprintf(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*name=["']%s["']`, s)),
			}
		}
	}
	return patterns
}

// Extract implements Extractor
func (RegexExtractor) Extract(html, sourceURL string) Metadata {
	domain := DomainName(sourceURL)

	title := metaContent(html, titleSelectors)
	if title == "" {
		title = documentTitle(html)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain
	}

	data := Metadata{
		URL:         sourceURL,
		Title:       title,
		Description: strings.TrimSpace(metaContent(html, descriptionSelectors)),
		SiteName:    metaContent(html, siteNameSelectors),
		Favicon:     favicon(html, sourceURL),
	}

	if image := metaContent(html, imageSelectors); image != "" {
		data.Image = resolveURL(image, sourceURL)
	}

	if data.SiteName == "" {
		data.SiteName = domain
	}

	return data
}

// DecodeEntities replaces the handful of HTML entities commonly found in meta
// content. It is not a full entity table: anything else is left encoded.
func DecodeEntities(text string) string {
	return entityReplacer.Replace(text)
}

// metaContent returns the first non-empty content value for the selectors, in order
func metaContent(html string, selectors []string) string {
	for _, selector := range selectors {
		for _, pattern := range metaPatterns[selector] {
			if m := pattern.FindStringSubmatch(html); len(m) > 1 && m[1] != "" {
				return DecodeEntities(m[1])
			}
		}
	}
	return ""
}

// documentTitle returns the text of the <title> element
func documentTitle(html string) string {
	m := titlePattern.FindStringSubmatch(html)
	if len(m) < 2 {
		return ""
	}
	return DecodeEntities(strings.TrimSpace(m[1]))
}

// favicon finds an icon link, falling back to /favicon.ico on the page's origin.
// Returns "" when sourceURL is not an absolute URL.
func favicon(html, sourceURL string) string {
	o, ok := origin(sourceURL)
	if !ok {
		return ""
	}

	for _, pattern := range faviconPatterns {
		if m := pattern.FindStringSubmatch(html); len(m) > 1 && m[1] != "" {
			return resolveURL(DecodeEntities(m[1]), sourceURL)
		}
	}
	return o + "/favicon.ico"
}
