package content

import (
	"fmt"
	"regexp"
	"strings"
)

// EmbedComponents are the MDX components a converted post may import
var EmbedComponents = []string{"YouTube", "Gist", "Tweet", "CodePen", "Snappify", "LinkPreview", "UrlEmbed"}

// ComponentImportDir is where the embed components live relative to a post
const ComponentImportDir = "../../components/embeds"

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// Applied in order; the generic %[url] rule runs last
var embedRewrites = []rewrite{
	{regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\s+align="[^"]*"\)`), `![${1}](${2})`},
	{regexp.MustCompile(`%\[https?://(?:www\.)?youtube\.com/watch\?v=([^\]&]+)[^\]]*\]`), `<YouTube id="${1}" />`},
	{regexp.MustCompile(`%\[https?://youtu\.be/([^\]?]+)[^\]]*\]`), `<YouTube id="${1}" />`},
	{regexp.MustCompile(`%\[https?://gist\.github\.com/([^\]]+)\]`), `<Gist id="${1}" />`},
	{regexp.MustCompile(`%\[https?://(?:twitter|x)\.com/\w+/status/(\d+)[^\]]*\]`), `<Tweet id="${1}" />`},
	{regexp.MustCompile(`%\[https?://codepen\.io/([^/]+)/pen/([^\]]+)\]`), `<CodePen user="${1}" slug="${2}" />`},
	{regexp.MustCompile(`%\[https?://snappify\.com/(?:view|embed)/([^\]]+)\]`), `<Snappify id="${1}" />`},
}

var genericEmbed = regexp.MustCompile(`%\[(https?://[^\]]+)\]`)

// ConvertHashnodeMarkdown rewrites Hashnode-flavoured markdown into MDX using
// the site's embed components. Embeds and inline links pointing at the
// publication host become internal /blog links.
func ConvertHashnodeMarkdown(markdown, host string) string {
	out := markdown
	for _, r := range embedRewrites {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}

	out = genericEmbed.ReplaceAllStringFunc(out, func(match string) string {
		u := genericEmbed.FindStringSubmatch(match)[1]
		if host != "" && strings.Contains(u, host) {
			slug, anchor := splitHostLink(u, host)
			title := strings.ReplaceAll(slug, "-", " ")
			return fmt.Sprintf("[Read: %s](/blog/%s%s)", title, slug, anchor)
		}
		return fmt.Sprintf(`<UrlEmbed url="%s" />`, u)
	})

	if host != "" {
		inline := regexp.MustCompile(`\]\(https://` + regexp.QuoteMeta(host) + `/([^)]+)\)`)
		out = inline.ReplaceAllStringFunc(out, func(match string) string {
			slug, anchor := splitFragment(inline.FindStringSubmatch(match)[1])
			return "](/blog/" + slug + anchor + ")"
		})
	}

	return out
}

// splitHostLink returns the slug and "#anchor" (or "") of a link into the publication
func splitHostLink(u, host string) (string, string) {
	rest := u
	if i := strings.Index(rest, host+"/"); i >= 0 {
		rest = rest[i+len(host)+1:]
	} else {
		rest = ""
	}
	return splitFragment(rest)
}

func splitFragment(s string) (string, string) {
	slug, anchor, found := strings.Cut(s, "#")
	if !found {
		return slug, ""
	}
	return slug, "#" + anchor
}

// UsedComponents lists the embed components referenced in an MDX body
func UsedComponents(mdx string) []string {
	var used []string
	for _, comp := range EmbedComponents {
		if regexp.MustCompile(`<` + comp + `[\s/>]`).MatchString(mdx) {
			used = append(used, comp)
		}
	}
	return used
}

// ImportBlock renders the MDX import lines for components, or "" when there are none
func ImportBlock(components []string) string {
	if len(components) == 0 {
		return ""
	}

	var b strings.Builder
	for _, comp := range components {
		fmt.Fprintf(&b, "import %s from \"%s/%s.astro\";\n", comp, ComponentImportDir, comp)
	}
	return b.String()
}
