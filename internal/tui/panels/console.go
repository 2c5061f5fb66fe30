package panels

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/tui/components"
)

// consoleTabs follow console.Filter.Next order.
var consoleTabs = []string{"All", "Info", "Warn", "Error"}

// ConsolePanel shows the session console with a severity filter. Each tab
// carries the number of entries it would show.
type ConsolePanel struct {
	tabbar components.TabBar
	view   components.LogView
	filter console.Filter
	width  int
	height int
}

// NewConsolePanel creates a ConsolePanel showing every severity.
func NewConsolePanel(w, h int) ConsolePanel {
	return ConsolePanel{
		tabbar: components.NewTabBar(consoleTabs).SetWidth(w),
		view:   components.NewLogView(w, contentHeight(h)),
		filter: console.FilterAll,
		width:  w,
		height: h,
	}
}

// SetAccent colors the active filter tab.
func (p ConsolePanel) SetAccent(c lipgloss.Color) ConsolePanel {
	p.tabbar = p.tabbar.SetAccent(c)
	return p
}

// SetEntries refreshes the panel from a snapshot of every console entry.
// render turns one entry into one line.
func (p ConsolePanel) SetEntries(entries []console.Entry, render func(console.Entry) string) ConsolePanel {
	counts := make([]int, len(consoleTabs))
	var lines []string
	for _, e := range entries {
		counts[0]++
		if i := filterIndex(console.Only(e.Severity)); i > 0 {
			counts[i]++
		}
		if p.filter.Matches(e) {
			lines = append(lines, render(e))
		}
	}
	if len(lines) == 0 {
		lines = []string{placeholderStyle.Render("No entries.")}
	}
	p.tabbar = p.tabbar.SetCounts(counts)
	p.view = p.view.SetContent(lines)
	return p
}

// CycleFilter advances all → info → warn → error → all. Call SetEntries
// afterwards to apply it.
func (p ConsolePanel) CycleFilter() ConsolePanel {
	p.filter = p.filter.Next()
	p.tabbar = p.tabbar.SetActive(filterIndex(p.filter))
	return p
}

// Filter returns the active filter.
func (p ConsolePanel) Filter() console.Filter {
	return p.filter
}

// Following reports whether the log follows new entries.
func (p ConsolePanel) Following() bool {
	return p.view.Following()
}

// SetSize resizes the panel.
func (p ConsolePanel) SetSize(w, h int) ConsolePanel {
	p.width = w
	p.height = h
	p.tabbar = p.tabbar.SetWidth(w)
	p.view = p.view.SetSize(w, contentHeight(h))
	return p
}

// Update handles f (follow) and scrolling.
func (p ConsolePanel) Update(msg tea.Msg) (ConsolePanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "f" {
		p.view = p.view.ToggleFollow()
		return p, nil
	}
	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

// View renders the tab bar above the log.
func (p ConsolePanel) View() string {
	return p.tabbar.View() + "\n" + p.view.View()
}

func filterIndex(f console.Filter) int {
	switch f.String() {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

// contentHeight subtracts the tab bar row.
func contentHeight(h int) int {
	if h-1 < 1 {
		return 1
	}
	return h - 1
}
