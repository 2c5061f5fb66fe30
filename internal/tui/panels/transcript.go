package panels

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/tui/components"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B9BD5")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77")).Bold(true)
	turnTimeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	patchBadgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	placeholderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

const emptyTranscript = "No turns yet. Type a request below and press ctrl+s."

// MarkdownAuto picks the markdown style from the terminal background.
const MarkdownAuto = "auto"

// TranscriptPanel shows the conversation. Assistant answers are rendered as
// markdown; one turn is selected and drives the trace panel and ctrl+p.
type TranscriptPanel struct {
	turns    []session.Turn
	selected int
	starts   []int // first line of each turn
	view     components.LogView
	style    string
	renderer *glamour.TermRenderer
	cache    map[string]string // turn ID → rendered body at the current width
	width    int
	height   int
}

// NewTranscriptPanel creates an empty transcript. style is a glamour
// standard style name ("dark", "light", "notty") or MarkdownAuto.
func NewTranscriptPanel(w, h int, style string) TranscriptPanel {
	if style == "" {
		style = "dark"
	}
	p := TranscriptPanel{
		selected: -1,
		view:     components.NewLogView(w, h),
		style:    style,
		width:    w,
		height:   h,
	}
	p.renderer = newMarkdownRenderer(style, w)
	p.cache = make(map[string]string)
	return p.render()
}

// newMarkdownRenderer returns nil when glamour cannot be set up; bodies are
// then shown as plain text.
func newMarkdownRenderer(style string, width int) *glamour.TermRenderer {
	styleOpt := glamour.WithStandardStyle(style)
	if style == MarkdownAuto {
		styleOpt = glamour.WithAutoStyle()
	}
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return nil
	}
	return r
}

// SetTurns replaces the transcript with a snapshot. When new turns arrive
// and the last turn was selected (or nothing was), the newest turn becomes
// selected.
func (p TranscriptPanel) SetTurns(turns []session.Turn) TranscriptPanel {
	atEnd := p.selected == len(p.turns)-1
	grew := len(turns) != len(p.turns)
	p.turns = turns
	if grew && atEnd {
		p.selected = len(turns) - 1
	}
	if p.selected >= len(turns) {
		p.selected = len(turns) - 1
	}
	return p.render()
}

// Selected returns the selected turn.
func (p TranscriptPanel) Selected() (session.Turn, bool) {
	if p.selected < 0 || p.selected >= len(p.turns) {
		return session.Turn{}, false
	}
	return p.turns[p.selected], true
}

// SelectedIndex returns the index of the selected turn, or -1.
func (p TranscriptPanel) SelectedIndex() int {
	return p.selected
}

// Select moves the selection to turn i and scrolls it into view.
func (p TranscriptPanel) Select(i int) TranscriptPanel {
	if len(p.turns) == 0 {
		return p
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.turns) {
		i = len(p.turns) - 1
	}
	p.selected = i
	p = p.render()
	p.view = p.view.EnsureVisible(p.starts[i])
	return p
}

// SetSize resizes the panel. Cached markdown is dropped because wrapping
// depends on the width.
func (p TranscriptPanel) SetSize(w, h int) TranscriptPanel {
	if w != p.width {
		p.renderer = newMarkdownRenderer(p.style, w)
		p.cache = make(map[string]string)
	}
	p.width = w
	p.height = h
	p.view = p.view.SetSize(w, h)
	return p.render()
}

// Update handles selection keys; everything else scrolls.
func (p TranscriptPanel) Update(msg tea.Msg) (TranscriptPanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "k", "up":
			return p.Select(p.selected - 1), nil
		case "j", "down":
			return p.Select(p.selected + 1), nil
		case "g":
			return p.Select(0), nil
		case "G":
			return p.Select(len(p.turns) - 1), nil
		}
	}
	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

// View renders the transcript.
func (p TranscriptPanel) View() string {
	return p.view.View()
}

func (p TranscriptPanel) render() TranscriptPanel {
	if len(p.turns) == 0 {
		p.starts = nil
		p.view = p.view.SetContent([]string{placeholderStyle.Render(emptyTranscript)})
		return p
	}

	var lines []string
	p.starts = make([]int, len(p.turns))
	for i, t := range p.turns {
		p.starts[i] = len(lines)
		lines = append(lines, p.turnHeader(t, i == p.selected))
		lines = append(lines, strings.Split(p.body(t), "\n")...)
		lines = append(lines, "")
	}
	p.view = p.view.SetContent(lines)
	return p
}

func (p TranscriptPanel) turnHeader(t session.Turn, selected bool) string {
	marker := "  "
	if selected {
		marker = "▶ "
	}
	label := userLabelStyle.Render("You")
	if t.Role == session.RoleAssistant {
		label = assistantLabelStyle.Render("Agent")
	}
	h := marker + label + " " + turnTimeStyle.Render(t.CreatedAt.Format("15:04:05"))
	if t.HasPatch {
		h += " " + patchBadgeStyle.Render("[patch]")
	}
	return h
}

func (p TranscriptPanel) body(t session.Turn) string {
	if t.Role != session.RoleAssistant || p.renderer == nil {
		return lipgloss.NewStyle().Width(p.width).PaddingLeft(2).Render(t.Content)
	}
	if out, ok := p.cache[t.ID]; ok {
		return out
	}
	out, err := p.renderer.Render(t.Content)
	if err != nil {
		out = t.Content
	}
	out = strings.Trim(out, "\n")
	p.cache[t.ID] = out
	return out
}
