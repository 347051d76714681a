package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/link-preview/pkg/hashnode"
)

const samplePost = `---
title: Building a link preview cache
publishedAt: 2024-03-01
tags:
  - go
  - web
canonicalUrl: https://gelinjo.hashnode.dev/link-preview
---
Body with <UrlEmbed url="https://example.com" />
`

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   string
		wantBody string
		wantErr  bool
	}{
		{
			name:     "basic",
			content:  "---\ntitle: x\n---\nbody\n",
			wantFM:   "title: x\n",
			wantBody: "body\n",
		},
		{
			name:     "crlf",
			content:  "---\r\ntitle: x\r\n---\r\nbody\r\n",
			wantFM:   "title: x\n",
			wantBody: "body\n",
		},
		{
			name:     "empty block",
			content:  "---\n---\nbody",
			wantFM:   "",
			wantBody: "body",
		},
		{
			name:     "dashes inside block",
			content:  "---\ntitle: a---b\n---\nbody",
			wantFM:   "title: a---b\n",
			wantBody: "body",
		},
		{
			name:     "no closing delimiter at end of file",
			content:  "---\ntitle: x\n---",
			wantFM:   "title: x\n",
			wantBody: "",
		},
		{
			name:    "missing",
			content: "# just markdown\n",
			wantErr: true,
		},
		{
			name:    "unterminated",
			content: "---\ntitle: x\nbody\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := Split([]byte(tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoFrontMatter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFM, string(fm))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	post, body, err := Parse([]byte(samplePost))
	require.NoError(t, err)

	assert.Equal(t, "Building a link preview cache", post.Title)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), post.PublishedAt)
	assert.Nil(t, post.UpdatedAt)
	assert.Equal(t, []string{"go", "web"}, post.Tags)
	assert.Equal(t, "https://gelinjo.hashnode.dev/link-preview", post.CanonicalURL)
	assert.Equal(t, Author{Name: DefaultAuthorName, ProfilePicture: DefaultAuthorPicture}, post.Author)
	assert.False(t, post.Draft)
	assert.True(t, post.IsArticle())
	assert.Contains(t, string(body), "UrlEmbed")
}

func TestParseExplicitFields(t *testing.T) {
	content := `---
title: "Quick note"
publishedAt: "2024-05-10T08:30:00Z"
updatedAt: 2024-05-11
author:
  name: Someone Else
draft: true
type: note
---
`
	post, _, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC), post.PublishedAt)
	require.NotNil(t, post.UpdatedAt)
	assert.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), *post.UpdatedAt)
	assert.Equal(t, "Someone Else", post.Author.Name)
	assert.Empty(t, post.Author.ProfilePicture)
	assert.True(t, post.Draft)
	assert.True(t, post.IsNote())
	assert.Empty(t, post.Tags)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing title", "---\npublishedAt: 2024-01-01\n---\n"},
		{"missing date", "---\ntitle: x\n---\n"},
		{"bad date", "---\ntitle: x\npublishedAt: yesterday\n---\n"},
		{"bad type", "---\ntitle: x\npublishedAt: 2024-01-01\ntype: essay\n---\n"},
		{"tags not a list", "---\ntitle: x\npublishedAt: 2024-01-01\ntags: go\n---\n"},
		{"relative canonical", "---\ntitle: x\npublishedAt: 2024-01-01\ncanonicalUrl: /posts/x\n---\n"},
		{"author without name", "---\ntitle: x\npublishedAt: 2024-01-01\nauthor:\n  profilePicture: /a.png\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.content))
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.NotEmpty(t, verr.Problems)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unclosed\n---\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YAML")
}

func TestMarshalRoundTrip(t *testing.T) {
	updated := time.Date(2024, 6, 2, 14, 0, 0, 0, time.UTC)
	post := BlogPost{
		Title:        "Round trip",
		PublishedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    &updated,
		CanonicalURL: "https://example.com/round-trip",
		Tags:         []string{"go"},
		Author:       Author{Name: "A Writer"},
		Type:         TypeNote,
	}

	data, err := Marshal(post)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-06-01")

	parsed, body, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Equal(t, post, *parsed)
}

func TestValidate(t *testing.T) {
	post := BlogPost{Title: "ok", PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Author: Author{Name: "x"}}
	assert.NoError(t, Validate(post))

	post.Title = ""
	assert.Error(t, Validate(post))
}

func TestFromHashnode(t *testing.T) {
	post := hashnode.Post{
		Title:       "From the API",
		Subtitle:    "sub",
		Slug:        "from-the-api",
		PublishedAt: time.Date(2024, 2, 3, 17, 45, 0, 0, time.UTC),
		Tags:        []hashnode.Tag{{Name: "Go", Slug: "go"}, {Name: "Note", Slug: "note"}},
		CoverImage:  &hashnode.CoverImage{URL: "https://cdn.example.com/cover.png"},
	}

	fm := FromHashnode(post, "gelinjo.hashnode.dev")

	assert.Equal(t, "From the API", fm.Title)
	assert.Equal(t, "sub", fm.Subtitle)
	assert.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), fm.PublishedAt)
	assert.Equal(t, "https://gelinjo.hashnode.dev/from-the-api", fm.CanonicalURL)
	assert.Equal(t, "https://cdn.example.com/cover.png", fm.CoverImage)
	assert.Equal(t, []string{"go", "note"}, fm.Tags)
	assert.Equal(t, TypeNote, fm.Type)
	assert.Equal(t, DefaultAuthorName, fm.Author.Name)
	assert.NoError(t, Validate(fm))

	post.Tags = nil
	post.Author = hashnode.Author{Name: "Guest", ProfilePicture: "https://cdn.example.com/g.png"}
	fm = FromHashnode(post, "")
	assert.Equal(t, TypeArticle, fm.Type)
	assert.Empty(t, fm.CanonicalURL)
	assert.Equal(t, "Guest", fm.Author.Name)
	assert.NotNil(t, fm.Tags)
}
