// Package tui provides the bubbletea + lipgloss workspace UI: request editor,
// transcript, console and trace panels over one session.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// defaultAccentColor is the default accent color (indigo).
const defaultAccentColor = "#7D56F4"

var (
	colorWhite  = lipgloss.Color("#FAFAFA")
	colorGray   = lipgloss.Color("#888888")
	colorBlue   = lipgloss.Color("#5B9BD5")
	colorGreen  = lipgloss.Color("#6BCB77")
	colorYellow = lipgloss.Color("#FFD93D")
	colorRed    = lipgloss.Color("#FF6B6B")
)

// Styles used across the TUI. Accent-dependent styles (header, borders)
// live on the Theme.
var (
	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	searchStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	codeStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// toolIcon returns the emoji icon for a given tool name.
func toolIcon(toolName string) string {
	switch toolName {
	case "code_interpreter":
		return "🔧"
	case "web_search", "web_search_preview":
		return "🌐"
	case "file_search":
		return "📖"
	default:
		return "⚡"
	}
}

// toolStyle returns the lipgloss style for a given tool name.
func toolStyle(toolName string) lipgloss.Style {
	switch toolName {
	case "code_interpreter":
		return codeStyle
	case "web_search", "web_search_preview", "file_search":
		return searchStyle
	default:
		return infoStyle
	}
}

// singleLine collapses newlines and runs of whitespace into single spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
