// Package content collects the outbound links of a blog content directory so
// their previews can be fetched ahead of a site build.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/link-preview/pkg/frontmatter"
	"github.com/lepinkainen/link-preview/pkg/opengraph"
)

// Source identifies where a link was found
type Source string

// Link sources
const (
	SourceURLEmbed  Source = "urlembed"
	SourceEmbed     Source = "embed"
	SourceAnchor    Source = "anchor"
	SourceCanonical Source = "canonical"
)

// Link is one outbound URL and the file it came from
type Link struct {
	URL    string
	File   string
	Source Source
}

var (
	urlEmbedPattern = regexp.MustCompile(`<UrlEmbed\s+[^>]*?url\s*=\s*["']([^"']+)["']`)
	embedPattern    = regexp.MustCompile(`%\[(https?://[^\]\s]+)\]`)
)

// Hosts whose %[url] embeds render as dedicated players rather than previews
var playerHosts = []string{
	"youtube.com",
	"youtu.be",
	"gist.github.com",
	"twitter.com",
	"x.com",
	"codepen.io",
	"snappify.com",
}

// Scanner walks a content directory
type Scanner struct {
	root        string
	concurrency int
}

// NewScanner creates a scanner rooted at dir
func NewScanner(dir string, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Scanner{root: dir, concurrency: concurrency}
}

// Scan returns every previewable link under the root, de-duplicated by
// normalized URL and sorted. Files that cannot be read are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]Link, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		links = make(map[string]Link)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			found, err := ScanFile(path)
			if err != nil {
				slog.Warn("Failed to scan content file", "path", path, "error", err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, l := range found {
				key := opengraph.NormalizeURL(l.URL)
				if _, seen := links[key]; !seen {
					l.URL = key
					links[key] = l
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]Link, 0, len(links))
	for _, l := range links {
		result = append(result, l)
	}
	slices.SortFunc(result, func(a, b Link) int { return strings.Compare(a.URL, b.URL) })

	slog.Debug("Scanned content directory", "root", s.root, "files", len(files), "links", len(result))
	return result, nil
}

// URLs returns the URLs of links in order
func URLs(links []Link) []string {
	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}
	return urls
}

func (s *Scanner) files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".mdx", ".html", ".htm":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk content directory %s: %w", s.root, err)
	}
	return files, nil
}

// ScanFile extracts links from a single md, mdx or html file
func ScanFile(path string) ([]Link, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return anchorLinks(path, data), nil
	default:
		return markdownLinks(path, data), nil
	}
}

func markdownLinks(path string, data []byte) []Link {
	var links []Link

	post, body, err := frontmatter.Parse(data)
	switch {
	case err == nil:
		if post.CanonicalURL != "" {
			links = append(links, Link{URL: post.CanonicalURL, File: path, Source: SourceCanonical})
		}
	case errors.Is(err, frontmatter.ErrNoFrontMatter):
	default:
		slog.Debug("Ignoring invalid front matter", "path", path, "error", err)
	}
	if body == nil {
		body = data
	}

	for _, m := range urlEmbedPattern.FindAllSubmatch(body, -1) {
		links = append(links, Link{URL: string(m[1]), File: path, Source: SourceURLEmbed})
	}
	for _, m := range embedPattern.FindAllSubmatch(body, -1) {
		u := string(m[1])
		if isPlayerEmbed(u) {
			continue
		}
		links = append(links, Link{URL: u, File: path, Source: SourceEmbed})
	}

	return links
}

func anchorLinks(path string, data []byte) []Link {
	var links []Link

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					href := strings.TrimSpace(string(val))
					if isHTTP(href) {
						links = append(links, Link{URL: href, File: path, Source: SourceAnchor})
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func isPlayerEmbed(rawURL string) bool {
	return slices.Contains(playerHosts, strings.ToLower(opengraph.DomainName(rawURL)))
}

func isHTTP(href string) bool {
	lower := strings.ToLower(href)
	return (strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")) && opengraph.IsValidURL(href)
}
