// Package preview provides an interactive browser for cached link previews using Bubble Tea TUI.
package preview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/link-preview/pkg/opengraph"
)

// wrapText wraps text to the specified width, breaking at word boundaries when possible
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := len([]rune(word))

		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// truncate shortens s to limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// freshnessMark is "●" for fresh entries and "○" for stale ones
func freshnessMark(item opengraph.Metadata, ttl time.Duration, now time.Time) string {
	if opengraph.IsFresh(item, ttl, now) {
		return "●"
	}
	return "○"
}

// FormatCompactListItem formats a single cache entry in compact list format
// Example: " 1. ● 2026-10-18  example.com  Example Domain"
func FormatCompactListItem(index int, item opengraph.Metadata, ttl time.Duration, now time.Time) string {
	const (
		maxDomainLength = 24
		maxTitleLength  = 60
	)

	date := "----------"
	if !item.FetchedAt.IsZero() {
		date = item.FetchedAt.Format("2006-01-02")
	}

	domain := truncate(opengraph.DomainName(item.URL), maxDomainLength)
	title := truncate(item.Title, maxTitleLength)

	return fmt.Sprintf("%2d. %s %s  %-*s  %s", index+1, freshnessMark(item, ttl, now), date, maxDomainLength, domain, title)
}

// FormatDetailedItem formats a single cache entry with all metadata
func FormatDetailedItem(item opengraph.Metadata, ttl time.Duration, now time.Time) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", item.Title))
	b.WriteString(fmt.Sprintf("URL: %s\n", item.URL))

	if item.SiteName != "" {
		b.WriteString(fmt.Sprintf("Site: %s\n", item.SiteName))
	}
	if item.Image != "" {
		b.WriteString(fmt.Sprintf("Image: %s\n", item.Image))
	}
	if item.Favicon != "" {
		b.WriteString(fmt.Sprintf("Favicon: %s\n", item.Favicon))
	}

	if item.FetchedAt.IsZero() {
		b.WriteString("Fetched: never\n")
	} else {
		status := "fresh"
		if !opengraph.IsFresh(item, ttl, now) {
			status = "stale"
		}
		b.WriteString(fmt.Sprintf("Fetched: %s (%s)\n", formatTimeAgo(item.FetchedAt, now), status))
	}

	if item.Description != "" {
		const maxDescriptionLength = 1000
		wrapped := wrapText(truncate(item.Description, maxDescriptionLength), 70)
		b.WriteString(fmt.Sprintf("\nDescription:\n%s\n", wrapped))
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// FormatJSONItem renders a cache entry exactly as it is stored in the JSON cache
func FormatJSONItem(item opengraph.Metadata) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]opengraph.Metadata{item.URL: item}); err != nil {
		return fmt.Sprintf("Error encoding entry: %s", err)
	}
	return buf.String()
}

// formatTimeAgo formats t relative to now as a human-readable "X ago" string
func formatTimeAgo(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
