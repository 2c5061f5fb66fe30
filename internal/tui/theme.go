package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// Theme holds accent-color-derived styles for the workspace.
type Theme struct {
	accent          lipgloss.Color
	accentStyle     lipgloss.Style // header background
	borderFocused   lipgloss.Style // focused panel border
	borderUnfocused lipgloss.Style // unfocused panel border
}

// NewTheme creates a Theme from a hex accent color string (e.g. "#7D56F4").
// If accentColor is empty, the default accent color is used.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if accentColor != "" {
		color = accentColor
	}
	c := lipgloss.Color(color)
	return Theme{
		accent: c,
		accentStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		borderFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c),
		borderUnfocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray),
	}
}

// Accent returns the accent color.
func (t Theme) Accent() lipgloss.Color {
	return t.accent
}

// AccentHeaderStyle returns the style for the header bar.
func (t Theme) AccentHeaderStyle() lipgloss.Style {
	return t.accentStyle
}

// PanelBorderStyle returns the appropriate border style for a panel based on
// whether it currently holds keyboard focus.
func (t Theme) PanelBorderStyle(focused bool) lipgloss.Style {
	if focused {
		return t.borderFocused
	}
	return t.borderUnfocused
}

// RenderLogLine renders a console entry as a single terminal line.
func (t Theme) RenderLogLine(entry console.Entry, width int) string {
	ts := timestampStyle.Render(fmt.Sprintf("[%s]", entry.Timestamp.Format("15:04:05")))

	text := truncate(singleLine(entry.Message), width-15)
	switch entry.Severity {
	case console.SeverityWarn:
		return fmt.Sprintf("%s  %s", ts, warnStyle.Render("⚠ "+text))
	case console.SeverityError:
		return fmt.Sprintf("%s  %s", ts, errorStyle.Render("✗ "+text))
	default:
		return fmt.Sprintf("%s  %s", ts, infoStyle.Render("• "+text))
	}
}

// RenderTraceLines renders the trace attached to turn as panel lines. Turns
// without a trace render a single placeholder line.
func (t Theme) RenderTraceLines(turn session.Turn, width int) []string {
	rec := turn.Trace
	if rec == nil {
		return []string{dimStyle.Render("No trace for this turn.")}
	}

	m := rec.Metrics
	lines := []string{
		sectionStyle.Render("Metrics"),
		fmt.Sprintf("  tokens   %d", m.TotalTokens),
		fmt.Sprintf("  latency  %dms", m.TotalLatencyMs),
	}
	if d := rec.ToolDuration(); d > 0 {
		lines = append(lines, fmt.Sprintf("  in tools %dms", d.Milliseconds()))
	}
	if !m.RequestTime.IsZero() {
		lines = append(lines, fmt.Sprintf("  started  %s", m.RequestTime.Format("15:04:05")))
	}

	lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("Tool calls (%d)", len(rec.ToolCalls))))
	for _, c := range rec.ToolCalls {
		name := toolStyle(c.Name).Render(c.Name)
		line := fmt.Sprintf("  %s %s %s", toolIcon(c.Name), name, truncate(singleLine(c.Input), width-len(c.Name)-8))
		lines = append(lines, line)
		if c.Output != "" {
			lines = append(lines, resultStyle.Render("    → "+truncate(singleLine(c.Output), width-8)))
		}
		if c.DurationMs > 0 {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("    %dms", c.DurationMs)))
		}
	}

	lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("Searches (%d)", len(rec.SearchQueries))))
	for _, q := range rec.SearchQueries {
		label := fmt.Sprintf("%s (%d results)", singleLine(q.Query), q.ResultCount)
		lines = append(lines, searchStyle.Render("  🌐 "+truncate(label, width-6)))
	}

	lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("Logs (%d)", len(rec.ExecutionLogs))))
	for _, l := range rec.ExecutionLogs {
		ts := timestampStyle.Render(l.Timestamp.Format("15:04:05"))
		lines = append(lines, fmt.Sprintf("  %s %s", ts, truncate(singleLine(l.Message), width-13)))
	}
	return lines
}
