// Package components provides reusable widgets for the workspace panels.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultTabAccent = lipgloss.Color("#7D56F4")

// tabInactiveStyle renders inactive tabs in a dimmed style.
var tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// TabBar is a stateless tab bar component that renders a row of labelled
// tabs, each optionally followed by a count badge.
type TabBar struct {
	tabs   []string
	counts []int
	active int
	width  int
	accent lipgloss.Color
}

// NewTabBar creates a TabBar with the given tab titles. The first tab is active.
func NewTabBar(tabs []string) TabBar {
	return TabBar{tabs: tabs, accent: defaultTabAccent}
}

// Active returns the index of the currently active tab.
func (t TabBar) Active() int {
	return t.active
}

// SetActive returns a TabBar with tab i active. Out-of-range indexes are ignored.
func (t TabBar) SetActive(i int) TabBar {
	if i >= 0 && i < len(t.tabs) {
		t.active = i
	}
	return t
}

// Next returns a TabBar with the next tab active (wraps around).
func (t TabBar) Next() TabBar {
	if len(t.tabs) == 0 {
		return t
	}
	t.active = (t.active + 1) % len(t.tabs)
	return t
}

// Prev returns a TabBar with the previous tab active (wraps around).
func (t TabBar) Prev() TabBar {
	if len(t.tabs) == 0 {
		return t
	}
	t.active = (t.active + len(t.tabs) - 1) % len(t.tabs)
	return t
}

// SetCounts sets per-tab badges. counts[i] belongs to tab i; missing
// entries render without a badge.
func (t TabBar) SetCounts(counts []int) TabBar {
	t.counts = append([]int(nil), counts...)
	return t
}

// SetAccent sets the color of the active tab.
func (t TabBar) SetAccent(c lipgloss.Color) TabBar {
	if c != "" {
		t.accent = c
	}
	return t
}

// SetWidth returns a TabBar configured for the given render width.
func (t TabBar) SetWidth(w int) TabBar {
	t.width = w
	return t
}

// View renders the tab bar as a single line string.
// Active tab: bold + accent color. Inactive tabs: dimmed.
func (t TabBar) View() string {
	if len(t.tabs) == 0 {
		return ""
	}

	active := lipgloss.NewStyle().Bold(true).Foreground(t.accent)
	parts := make([]string, 0, len(t.tabs))
	for i, label := range t.tabs {
		if i < len(t.counts) {
			label = fmt.Sprintf("%s %d", label, t.counts[i])
		}
		if i == t.active {
			parts = append(parts, active.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}

	line := strings.Join(parts, "  │  ")
	if t.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(t.width).Render(line)
	}
	return line
}
