// Package frontmatter parses and validates the YAML front matter of blog posts.
package frontmatter

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/link-preview/pkg/hashnode"
)

//go:embed blog.schema.json
var blogSchemaJSON []byte

// ErrNoFrontMatter is returned when a document does not start with a --- block
var ErrNoFrontMatter = errors.New("no front matter")

// PostType distinguishes long-form articles from short notes
type PostType string

// Post types
const (
	TypeArticle PostType = "article"
	TypeNote    PostType = "note"
)

// Default author applied when front matter has none
const (
	DefaultAuthorName    = "Jonathan Gelin"
	DefaultAuthorPicture = "/avatar.png"
)

// Author of a blog post
type Author struct {
	Name           string `yaml:"name"`
	ProfilePicture string `yaml:"profilePicture,omitempty"`
}

// BlogPost is the validated front matter of a blog post
type BlogPost struct {
	Title        string     `yaml:"title"`
	Subtitle     string     `yaml:"subtitle,omitempty"`
	PublishedAt  time.Time  `yaml:"publishedAt"`
	UpdatedAt    *time.Time `yaml:"updatedAt,omitempty"`
	CoverImage   string     `yaml:"coverImage,omitempty"`
	CanonicalURL string     `yaml:"canonicalUrl,omitempty"`
	Tags         []string   `yaml:"tags"`
	Author       Author     `yaml:"author"`
	Draft        bool       `yaml:"draft"`
	Type         PostType   `yaml:"type"`
}

// IsArticle reports whether the post is a long-form article
func (p BlogPost) IsArticle() bool { return p.Type == TypeArticle }

// IsNote reports whether the post is a short note
func (p BlogPost) IsNote() bool { return p.Type == TypeNote }

// ValidationError lists every schema violation found in a document
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid front matter: " + strings.Join(e.Problems, "; ")
}

var blogSchema = mustCompileSchema(blogSchemaJSON)

func mustCompileSchema(data []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("frontmatter: invalid embedded schema: %v", err))
	}
	return schema
}

// Split separates the front matter block from the document body
func Split(content []byte) (frontMatter, body []byte, err error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, normalized, ErrNoFrontMatter
	}

	rest := normalized[len("---\n"):]
	// The closing delimiter may be the very first line of rest (empty block)
	if bytes.HasPrefix(rest, []byte("---")) && (len(rest) == 3 || rest[3] == '\n') {
		return nil, bytes.TrimPrefix(rest[3:], []byte("\n")), nil
	}

	end := bytes.Index(rest, []byte("\n---"))
	for end >= 0 {
		after := rest[end+len("\n---"):]
		if len(after) == 0 || after[0] == '\n' {
			return rest[:end+1], bytes.TrimPrefix(after, []byte("\n")), nil
		}
		next := bytes.Index(after, []byte("\n---"))
		if next < 0 {
			break
		}
		end += len("\n---") + next
	}

	return nil, normalized, fmt.Errorf("%w: unterminated block", ErrNoFrontMatter)
}

// Parse splits, validates and decodes a document's front matter, returning
// the post and the remaining body
func Parse(content []byte) (*BlogPost, []byte, error) {
	fm, body, err := Split(content)
	if err != nil {
		return nil, body, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(fm, &raw); err != nil {
		return nil, body, fmt.Errorf("failed to parse front matter YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	raw = normalizeValues(raw).(map[string]any)
	if err := validate(raw); err != nil {
		return nil, body, err
	}

	post, err := decode(raw)
	if err != nil {
		return nil, body, err
	}
	return post, body, nil
}

// Validate checks an in-memory post against the front matter schema
func Validate(post BlogPost) error {
	return validate(toMap(post))
}

// Marshal renders a post as a --- delimited YAML block
func Marshal(post BlogPost) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toMap(post)); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

// FromHashnode builds front matter for a post imported from the Hashnode
// publication at host. Posts tagged "note" become notes.
func FromHashnode(post hashnode.Post, host string) BlogPost {
	fm := BlogPost{
		Title:       post.Title,
		Subtitle:    post.Subtitle,
		PublishedAt: post.PublishedAt.UTC().Truncate(24 * time.Hour),
		CoverImage:  post.CoverImageURL(),
		Tags:        make([]string, 0, len(post.Tags)),
		Author: Author{
			Name:           post.Author.Name,
			ProfilePicture: post.Author.ProfilePicture,
		},
		Type: TypeArticle,
	}

	if host != "" && post.Slug != "" {
		fm.CanonicalURL = fmt.Sprintf("https://%s/%s", host, post.Slug)
	}
	for _, t := range post.Tags {
		fm.Tags = append(fm.Tags, t.Slug)
	}
	if post.HasTag("note") {
		fm.Type = TypeNote
	}
	if fm.Author.Name == "" {
		fm.Author = Author{Name: DefaultAuthorName, ProfilePicture: DefaultAuthorPicture}
	}

	return fm
}

func validate(doc map[string]any) error {
	result, err := blogSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate front matter: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, e := range result.Errors() {
		verr.Problems = append(verr.Problems, e.String())
	}
	return verr
}

// decode converts a validated document into a BlogPost, applying defaults
func decode(doc map[string]any) (*BlogPost, error) {
	post := &BlogPost{
		Title:        stringValue(doc["title"]),
		Subtitle:     stringValue(doc["subtitle"]),
		CoverImage:   stringValue(doc["coverImage"]),
		CanonicalURL: stringValue(doc["canonicalUrl"]),
		Tags:         []string{},
		Author:       Author{Name: DefaultAuthorName, ProfilePicture: DefaultAuthorPicture},
		Type:         TypeArticle,
	}

	published, err := parseDate(stringValue(doc["publishedAt"]))
	if err != nil {
		return nil, fmt.Errorf("invalid publishedAt: %w", err)
	}
	post.PublishedAt = published

	if v, ok := doc["updatedAt"]; ok {
		updated, err := parseDate(stringValue(v))
		if err != nil {
			return nil, fmt.Errorf("invalid updatedAt: %w", err)
		}
		post.UpdatedAt = &updated
	}

	if tags, ok := doc["tags"].([]any); ok {
		for _, t := range tags {
			post.Tags = append(post.Tags, stringValue(t))
		}
	}

	if author, ok := doc["author"].(map[string]any); ok {
		post.Author = Author{
			Name:           stringValue(author["name"]),
			ProfilePicture: stringValue(author["profilePicture"]),
		}
	}

	if draft, ok := doc["draft"].(bool); ok {
		post.Draft = draft
	}
	if t, ok := doc["type"].(string); ok {
		post.Type = PostType(t)
	}

	return post, nil
}

// toMap renders a post the way it appears in front matter
func toMap(post BlogPost) map[string]any {
	doc := map[string]any{
		"title":       post.Title,
		"publishedAt": post.PublishedAt.Format(dateLayout(post.PublishedAt)),
		"draft":       post.Draft,
		"type":        string(post.Type),
	}
	if post.Type == "" {
		doc["type"] = string(TypeArticle)
	}
	if post.Subtitle != "" {
		doc["subtitle"] = post.Subtitle
	}
	if post.UpdatedAt != nil {
		doc["updatedAt"] = post.UpdatedAt.Format(dateLayout(*post.UpdatedAt))
	}
	if post.CoverImage != "" {
		doc["coverImage"] = post.CoverImage
	}
	if post.CanonicalURL != "" {
		doc["canonicalUrl"] = post.CanonicalURL
	}

	tags := make([]any, 0, len(post.Tags))
	for _, t := range post.Tags {
		tags = append(tags, t)
	}
	doc["tags"] = tags

	author := map[string]any{"name": post.Author.Name}
	if post.Author.ProfilePicture != "" {
		author["profilePicture"] = post.Author.ProfilePicture
	}
	doc["author"] = author

	return doc
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// dateLayout keeps midnight UTC dates in the short form used by hand-written posts
func dateLayout(t time.Time) string {
	if t.Equal(t.Truncate(24*time.Hour)) && t.Location() == time.UTC {
		return "2006-01-02"
	}
	return time.RFC3339
}

// normalizeValues turns decoded YAML values into JSON-schema friendly ones
func normalizeValues(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeValues(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeValues(item)
		}
		return val
	case time.Time:
		return val.Format(dateLayout(val))
	default:
		return val
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
