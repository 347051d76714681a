package hashnode

import (
	"encoding/json"
	"time"
)

// Author is the author block attached to a post
type Author struct {
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

// Tag is a post tag
type Tag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CoverImage wraps the cover image URL; Hashnode returns null for posts without one
type CoverImage struct {
	URL string `json:"url"`
}

// Content holds the rendered bodies Hashnode can return for a post
type Content struct {
	HTML     string `json:"html,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// Post represents a single Hashnode post
type Post struct {
	Author            Author      `json:"author"`
	PublishedAt       time.Time   `json:"publishedAt"`
	Title             string      `json:"title"`
	Subtitle          string      `json:"subtitle"`
	Brief             string      `json:"brief"`
	Slug              string      `json:"slug"`
	ReadTimeInMinutes int         `json:"readTimeInMinutes"`
	Content           *Content    `json:"content,omitempty"`
	Tags              []Tag       `json:"tags"`
	CoverImage        *CoverImage `json:"coverImage"`
}

// CoverImageURL returns the cover image URL or "" when there is none
func (p Post) CoverImageURL() string {
	if p.CoverImage == nil {
		return ""
	}
	return p.CoverImage.URL
}

// HasTag reports whether the post carries a tag with the given slug
func (p Post) HasTag(slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// PageInfo is the GraphQL cursor block for paginated connections
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type postEdge struct {
	Node Post `json:"node"`
}

type postsConnection struct {
	PageInfo PageInfo   `json:"pageInfo"`
	Edges    []postEdge `json:"edges"`
}

type postsData struct {
	Publication *struct {
		Title string          `json:"title"`
		Posts postsConnection `json:"posts"`
	} `json:"publication"`
}

type postData struct {
	Publication *struct {
		Title string `json:"title"`
		Post  *Post  `json:"post"`
	} `json:"publication"`
}

// graphQLRequest is the POST body sent to the API
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is one entry of the response errors array
type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}
