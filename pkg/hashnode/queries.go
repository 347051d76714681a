package hashnode

// postsQuery pages through a publication's posts
const postsQuery = `
query allPosts($host: String!, $first: Int!, $after: String) {
  publication(host: $host) {
    title
    posts(first: $first, after: $after) {
      pageInfo {
        hasNextPage
        endCursor
      }
      edges {
        node {
          author {
            name
            profilePicture
          }
          title
          subtitle
          brief
          slug
          coverImage {
            url
          }
          tags {
            name
            slug
          }
          publishedAt
          readTimeInMinutes
        }
      }
    }
  }
}`

// postQuery fetches one post including its rendered HTML and markdown
const postQuery = `
query postDetails($host: String!, $slug: String!) {
  publication(host: $host) {
    title
    post(slug: $slug) {
      author {
        name
        profilePicture
      }
      publishedAt
      title
      subtitle
      brief
      slug
      readTimeInMinutes
      content {
        html
        markdown
      }
      tags {
        name
        slug
      }
      coverImage {
        url
      }
    }
  }
}`
