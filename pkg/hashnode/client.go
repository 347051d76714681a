// Package hashnode loads blog posts from the Hashnode GraphQL API.
package hashnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	httputil "github.com/lepinkainen/link-preview/pkg/http"
)

// DefaultEndpoint is the public Hashnode GraphQL endpoint
const DefaultEndpoint = "https://gql.hashnode.com"

// DefaultPageSize is how many posts are requested per page
const DefaultPageSize = 20

// RequestInterval spaces out requests made by the default HTTP client
const RequestInterval = 250 * time.Millisecond

// ErrPublicationNotFound is returned when the host has no publication
var ErrPublicationNotFound = errors.New("publication not found")

// ErrPostNotFound is returned when a slug has no post
var ErrPostNotFound = errors.New("post not found")

// Client talks to the Hashnode GraphQL API for a single publication host
type Client struct {
	http     *httputil.Client
	endpoint string
	host     string
	pageSize int
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *httputil.Client) Option {
	return func(c *Client) { c.http = client }
}

// WithPageSize sets how many posts are requested per page
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a client for the publication served at host, e.g. "gelinjo.hashnode.dev"
func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		host:     host,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		config := httputil.DefaultConfig()
		config.RateLimiter = httputil.NewIntervalLimiter(RequestInterval)
		c.http = httputil.NewClient(config)
	}
	return c
}

// Host returns the publication host
func (c *Client) Host() string {
	return c.host
}

// Posts returns every post of the publication, following the cursor until
// the last page
func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	var posts []Post
	var after *string

	for page := 1; ; page++ {
		vars := map[string]any{
			"host":  c.host,
			"first": c.pageSize,
			"after": after,
		}

		var data postsData
		if err := c.do(ctx, postsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("failed to fetch posts page %d: %w", page, err)
		}
		if data.Publication == nil {
			return nil, fmt.Errorf("%w: %s", ErrPublicationNotFound, c.host)
		}

		conn := data.Publication.Posts
		for _, edge := range conn.Edges {
			posts = append(posts, edge.Node)
		}

		slog.Debug("Fetched Hashnode posts page", "host", c.host, "page", page, "count", len(conn.Edges))

		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == "" {
			break
		}
		cursor := conn.PageInfo.EndCursor
		after = &cursor
	}

	slog.Info("Loaded posts", "host", c.host, "count", len(posts))
	return posts, nil
}

// Post returns a single post, including its content, by slug
func (c *Client) Post(ctx context.Context, slug string) (*Post, error) {
	vars := map[string]any{
		"host": c.host,
		"slug": slug,
	}

	var data postData
	if err := c.do(ctx, postQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch post %s: %w", slug, err)
	}
	if data.Publication == nil {
		return nil, fmt.Errorf("%w: %s", ErrPublicationNotFound, c.host)
	}
	if data.Publication.Post == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
	}
	return data.Publication.Post, nil
}

// do sends one GraphQL request and decodes its data block into target
func (c *Client) do(ctx context.Context, query string, vars map[string]any, target any) error {
	resp, err := c.http.PostJSON(ctx, c.endpoint, graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}

	var body graphQLResponse
	if err := httputil.DecodeJSONResponse(resp, &body); err != nil {
		return fmt.Errorf("failed to decode GraphQL response: %w", err)
	}

	if len(body.Errors) > 0 {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("GraphQL error: %s", strings.Join(msgs, "; "))
	}

	if len(body.Data) == 0 || string(body.Data) == "null" {
		return fmt.Errorf("GraphQL response has no data")
	}
	if err := json.Unmarshal(body.Data, target); err != nil {
		return fmt.Errorf("failed to decode GraphQL data: %w", err)
	}
	return nil
}
