package opengraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"path without slash", "https://x.com/p", "https://x.com/p"},
		{"path with trailing slash", "https://x.com/p/", "https://x.com/p"},
		{"bare host", "https://example.com", "https://example.com"},
		{"bare host with slash", "https://example.com/", "https://example.com"},
		{"only one slash stripped", "https://example.com/a//", "https://example.com/a/"},
		{"query kept", "https://example.com/a?b=1", "https://example.com/a?b=1"},
		{"host lowercased", "https://Example.COM/Path", "https://example.com/Path"},
		{"relative input unchanged", "/just/a/path/", "/just/a/path/"},
		{"garbage unchanged", "::not a url", "::not a url"},
		{"empty unchanged", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURL(tt.input))
		})
	}
}

func TestNormalizeURL_TrailingSlashEquivalence(t *testing.T) {
	urls := []string{
		"https://blog.example.com/posts/hello",
		"http://localhost:4321/blog",
		"https://example.com",
		"https://example.com/a/b/c",
	}

	for _, u := range urls {
		assert.Equal(t, NormalizeURL(u), NormalizeURL(u+"/"), "url %s", u)
	}
}

func TestDomainName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.example.com/x", "example.com"},
		{"https://example.com", "example.com"},
		{"https://blog.example.com:8443/a", "blog.example.com"},
		{"https://wwwexample.com", "wwwexample.com"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DomainName(tt.input), "DomainName(%q)", tt.input)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		base     string
		expected string
	}{
		{"absolute unchanged", "https://cdn.example.com/a.png", "https://example.com/post", "https://cdn.example.com/a.png"},
		{"root relative", "/img/a.png", "https://example.com/blog/post", "https://example.com/img/a.png"},
		{"path relative", "a.png", "https://example.com/blog/post", "https://example.com/blog/a.png"},
		{"protocol relative", "//cdn.example.com/a.png", "https://example.com/", "https://cdn.example.com/a.png"},
		{"bad base", "a.png", "not a url", "a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveURL(tt.ref, tt.base))
		})
	}
}
