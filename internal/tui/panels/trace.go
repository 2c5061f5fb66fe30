package panels

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/tui/components"
)

var traceTitleStyle = lipgloss.NewStyle().Bold(true)

// TracePanel shows pre-rendered trace lines for the selected turn under a
// one-line title.
type TracePanel struct {
	title  string
	view   components.LogView
	width  int
	height int
}

// NewTracePanel creates an empty TracePanel.
func NewTracePanel(w, h int) TracePanel {
	v := components.NewLogView(w, contentHeight(h)).ToggleFollow() // traces read top-down
	return TracePanel{
		title:  "Trace",
		view:   v.SetContent([]string{placeholderStyle.Render("Select a turn to see its trace.")}),
		width:  w,
		height: h,
	}
}

// Show replaces the content. The view returns to the top only when the
// title changes, so a refresh of the same turn keeps the scroll position.
func (p TracePanel) Show(title string, lines []string) TracePanel {
	if title != p.title {
		p.view = components.NewLogView(p.width, contentHeight(p.height)).ToggleFollow()
	}
	p.title = title
	p.view = p.view.SetContent(lines)
	return p
}

// Title returns the current title.
func (p TracePanel) Title() string {
	return p.title
}

// SetSize resizes the panel.
func (p TracePanel) SetSize(w, h int) TracePanel {
	p.width = w
	p.height = h
	p.view = p.view.SetSize(w, contentHeight(h))
	return p
}

// Update scrolls the trace.
func (p TracePanel) Update(msg tea.Msg) (TracePanel, tea.Cmd) {
	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

// View renders the title above the trace lines.
func (p TracePanel) View() string {
	return traceTitleStyle.Render(p.title) + "\n" + p.view.View()
}
