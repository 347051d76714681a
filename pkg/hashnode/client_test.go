package hashnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httputil "github.com/lepinkainen/link-preview/pkg/http"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient("gelinjo.hashnode.dev",
		WithEndpoint(server.URL),
		WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{Timeout: time.Second})),
		WithPageSize(2),
	)
}

func decodeRequest(t *testing.T, r *http.Request) graphQLRequest {
	t.Helper()
	var req graphQLRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func postNode(slug string) string {
	return fmt.Sprintf(`{"node": {
		"author": {"name": "Jonathan Gelin", "profilePicture": "https://cdn.hashnode.com/a.png"},
		"title": "Post %[1]s",
		"subtitle": "",
		"brief": "brief",
		"slug": %[1]q,
		"coverImage": null,
		"tags": [{"name": "Go", "slug": "go"}],
		"publishedAt": "2024-03-01T10:00:00.000Z",
		"readTimeInMinutes": 4
	}}`, slug)
}

func TestClient_PostsFollowsCursor(t *testing.T) {
	var mu sync.Mutex
	var afters []any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Equal(t, "gelinjo.hashnode.dev", req.Variables["host"])
		assert.EqualValues(t, 2, req.Variables["first"])
		mu.Lock()
		afters = append(afters, req.Variables["after"])
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if req.Variables["after"] == nil {
			fmt.Fprintf(w, `{"data": {"publication": {"title": "Blog", "posts": {
				"pageInfo": {"hasNextPage": true, "endCursor": "cursor-1"},
				"edges": [%s, %s]}}}}`, postNode("one"), postNode("two"))
			return
		}
		fmt.Fprintf(w, `{"data": {"publication": {"title": "Blog", "posts": {
			"pageInfo": {"hasNextPage": false, "endCursor": "cursor-2"},
			"edges": [%s]}}}}`, postNode("three"))
	})

	posts, err := client.Posts(context.Background())
	require.NoError(t, err)

	require.Len(t, posts, 3)
	mu.Lock()
	assert.Equal(t, []any{nil, "cursor-1"}, afters)
	mu.Unlock()
	assert.Equal(t, "one", posts[0].Slug)
	assert.Equal(t, "three", posts[2].Slug)
	assert.Equal(t, "Jonathan Gelin", posts[0].Author.Name)
	assert.Equal(t, 4, posts[0].ReadTimeInMinutes)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), posts[0].PublishedAt.UTC())
	assert.Empty(t, posts[0].CoverImageURL())
	assert.True(t, posts[0].HasTag("go"))
}

func TestClient_PostsPublicationNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"publication": null}}`)
	})

	_, err := client.Posts(context.Background())
	assert.True(t, errors.Is(err, ErrPublicationNotFound), "got %v", err)
}

func TestClient_GraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": null, "errors": [{"message": "bad host"}, {"message": "try again"}]}`)
	})

	_, err := client.Posts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad host; try again")
}

func TestClient_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Posts(context.Background())
	assert.Error(t, err)
}

func TestClient_Post(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if req.Variables["slug"] == "missing" {
			fmt.Fprint(w, `{"data": {"publication": {"title": "Blog", "post": null}}}`)
			return
		}
		fmt.Fprintf(w, `{"data": {"publication": {"title": "Blog", "post": {
			"title": "Hello",
			"slug": %q,
			"publishedAt": "2024-03-01T10:00:00Z",
			"content": {"html": "<p>Hi</p>", "markdown": "Hi"},
			"coverImage": {"url": "https://cdn.hashnode.com/cover.png"},
			"tags": [{"name": "Note", "slug": "note"}],
			"author": {"name": "Jonathan Gelin", "profilePicture": ""}
		}}}}`, req.Variables["slug"])
	})

	post, err := client.Post(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Slug)
	require.NotNil(t, post.Content)
	assert.Equal(t, "<p>Hi</p>", post.Content.HTML)
	assert.Equal(t, "https://cdn.hashnode.com/cover.png", post.CoverImageURL())
	assert.True(t, post.HasTag("note"))

	_, err = client.Post(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrPostNotFound), "got %v", err)
}
