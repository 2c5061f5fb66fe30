package panels

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// FooterProps holds all data needed to render the status bar.
type FooterProps struct {
	Focus           string // "editor", "transcript", "console", "trace"
	StateLabel      string // "Idle", "Running", "Error"
	Running         bool
	WebSearch       bool
	CodeInterpreter bool
	LastRunAt       time.Time
	Now             time.Time
	ConsoleFilter   string
	TraceVisible    bool
	HasPresets      bool
}

// RenderFooter renders the status bar. Left side: run status, enabled tools
// and time since the last run. Right side: keybinding hints for the current
// focus plus the global keys.
func RenderFooter(props FooterProps, width int) string {
	state := props.StateLabel
	if state == "" {
		state = "—"
	}
	left := strings.Join([]string{
		state,
		"web search " + onOff(props.WebSearch),
		"code interpreter " + onOff(props.CodeInterpreter),
		"last run " + lastRun(props.LastRunAt, props.Now),
	}, "  │  ")

	submit := "ctrl+s:submit"
	if props.Running {
		submit = "submit disabled while running"
	}
	trace := "ctrl+t:hide trace"
	if !props.TraceVisible {
		trace = "ctrl+t:show trace"
	}
	right := panelHints(props.Focus, props.ConsoleFilter, props.HasPresets) + "  " + submit + "  " + trace + "  ctrl+c:quit"
	if lipgloss.Width(left)+2+lipgloss.Width(right) > width {
		right = submit + "  ctrl+c:quit"
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}

	return footerStyle.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}

// panelHints returns the context-sensitive keybinding hints for a given focus.
func panelHints(focus, filter string, presets bool) string {
	switch focus {
	case "editor":
		if presets {
			return "enter:newline  ctrl+r:preset  tab:next panel"
		}
		return "enter:newline  tab:next panel"
	case "transcript":
		return "j/k:select  ctrl+p:apply patch  tab:next panel"
	case "console":
		if filter == "" {
			filter = "all"
		}
		return fmt.Sprintf("ctrl+f:filter (%s)  ctrl+l:clear  f:follow  tab:next panel", filter)
	case "trace":
		return "↑/↓:scroll  tab:next panel"
	default:
		return "tab:next panel"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func lastRun(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.IsZero() || now.Before(at) {
		return at.Format("15:04:05")
	}
	return FormatElapsed(now.Sub(at)) + " ago"
}
