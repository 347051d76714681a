package preview

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/link-preview/pkg/opengraph"
)

// ViewMode represents the current view mode
type ViewMode int

// View modes for the preview TUI
const (
	ListViewMode ViewMode = iota
	DetailViewMode
	JSONViewMode
)

// Refresher re-fetches a single URL, bypassing the cache
type Refresher interface {
	Refresh(ctx context.Context, targetURL string) opengraph.Metadata
}

// refreshedMsg carries the result of a background refresh
type refreshedMsg struct {
	index int
	data  opengraph.Metadata
}

// Model represents the Bubble Tea model for the cache browser
type Model struct {
	items         []opengraph.Metadata
	cursor        int
	viewMode      ViewMode
	source        string
	ttl           time.Duration
	now           func() time.Time
	refresher     Refresher
	refreshing    bool
	width         int
	height        int
	selectedIndex int // Index of the item currently being viewed in detail
}

// SortEntries orders cache entries newest first, then by URL
func SortEntries(cache opengraph.Cache) []opengraph.Metadata {
	items := make([]opengraph.Metadata, 0, len(cache))
	for key, data := range cache {
		if data.URL == "" {
			data.URL = key
		}
		items = append(items, data)
	}
	slices.SortFunc(items, func(a, b opengraph.Metadata) int {
		if c := b.FetchedAt.Compare(a.FetchedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
	return items
}

// NewModel creates a new browser model. refresher may be nil, which disables the refresh key.
func NewModel(items []opengraph.Metadata, source string, ttl time.Duration, refresher Refresher) Model {
	return Model{
		items:         items,
		viewMode:      ListViewMode,
		source:        source,
		ttl:           ttl,
		now:           time.Now,
		refresher:     refresher,
		selectedIndex: -1,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshedMsg:
		m.refreshing = false
		if msg.index >= 0 && msg.index < len(m.items) {
			m.items = slices.Clone(m.items)
			m.items[msg.index] = msg.data
		}
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ListViewMode:
			return m.updateListView(msg)
		case DetailViewMode, JSONViewMode:
			return m.updateDetailView(msg)
		}
	}

	return m, nil
}

// updateListView handles key presses in list view mode
func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "enter":
		m.selectedIndex = m.cursor
		m.viewMode = DetailViewMode

	case "v":
		m.selectedIndex = m.cursor
		m.viewMode = JSONViewMode

	case "r":
		return m.startRefresh(m.cursor)
	}

	return m, nil
}

// updateDetailView handles key presses in detail/JSON view modes
func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.viewMode = ListViewMode

	case "v":
		if m.viewMode == DetailViewMode {
			m.viewMode = JSONViewMode
		} else {
			m.viewMode = DetailViewMode
		}

	case "r":
		return m.startRefresh(m.selectedIndex)
	}

	return m, nil
}

// startRefresh re-fetches the entry at index in the background
func (m Model) startRefresh(index int) (tea.Model, tea.Cmd) {
	if m.refresher == nil || m.refreshing || index < 0 || index >= len(m.items) {
		return m, nil
	}

	m.refreshing = true
	refresher := m.refresher
	targetURL := m.items[index].URL

	return m, func() tea.Msg {
		return refreshedMsg{index: index, data: refresher.Refresh(context.Background(), targetURL)}
	}
}

// View implements tea.Model
func (m Model) View() string {
	switch m.viewMode {
	case ListViewMode:
		return m.renderListView()
	case DetailViewMode:
		return m.renderDetailView()
	case JSONViewMode:
		return m.renderJSONView()
	}
	return ""
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("12")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// visibleRange keeps the cursor in the middle of the screen when possible
func (m Model) visibleRange() (int, int) {
	start, end := 0, len(m.items)
	if m.height <= 0 {
		return start, end
	}

	maxVisible := m.height - 6 // header, footer and padding
	if maxVisible <= 0 || maxVisible >= len(m.items) {
		return start, end
	}

	start = max(m.cursor-maxVisible/2, 0)
	end = start + maxVisible
	if end > len(m.items) {
		end = len(m.items)
		start = max(end-maxVisible, 0)
	}
	return start, end
}

// renderListView renders the list view
func (m Model) renderListView() string {
	var b strings.Builder

	header := fmt.Sprintf("Link Preview Cache - %s (%d entries)", m.source, len(m.items))
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	now := m.now()
	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		line := FormatCompactListItem(i, m.items[i], m.ttl, now)

		if i == m.cursor {
			b.WriteString(selectedStyle.Render("→ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footer("↑/↓ or j/k: navigate • enter: details • v: JSON view")))

	return b.String()
}

// renderDetailView renders the detail view
func (m Model) renderDetailView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return "No entry selected"
	}

	var b strings.Builder
	b.WriteString(FormatDetailedItem(m.items[m.selectedIndex], m.ttl, m.now()))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footer("esc: back to list • v: toggle JSON view")))

	return b.String()
}

// renderJSONView renders the entry as stored on disk
func (m Model) renderJSONView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return "No entry selected"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Cache Entry"))
	b.WriteString("\n\n")
	b.WriteString(FormatJSONItem(m.items[m.selectedIndex]))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footer("esc: back to list • v: toggle detail view")))

	return b.String()
}

func (m Model) footer(keys string) string {
	if m.refresher != nil {
		keys += " • r: refresh"
	}
	if m.refreshing {
		keys += " (refreshing...)"
	}
	return keys + " • q: quit"
}

// Run starts the Bubble Tea program
func Run(cache opengraph.Cache, source string, ttl time.Duration, refresher Refresher) error {
	if len(cache) == 0 {
		fmt.Println("No cached previews to browse")
		return nil
	}

	p := tea.NewProgram(NewModel(SortEntries(cache), source, ttl, refresher), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
