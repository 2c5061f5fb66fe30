package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/tui/components"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/tui/panels"
)

// Options configures the workspace Model.
type Options struct {
	AccentColor string
	ProjectName string
	WorkDir     string
	// MarkdownStyle is a glamour style name; empty means "dark".
	MarkdownStyle string
	// Context is passed to Session.Submit. Defaults to context.Background().
	Context context.Context
	// Presets are the requests ctrl+r cycles through.
	Presets []string
}

// Model is the root bubbletea model for the workspace.
type Model struct {
	// Session and its event feed
	sess   Session
	events <-chan session.Event
	ctx    context.Context

	// Sub-panels
	transcript panels.TranscriptPanel
	console    panels.ConsolePanel
	trace      panels.TracePanel
	editor     components.Editor

	// Layout and focus
	layout    Layout
	focus     FocusTarget
	theme     Theme
	width     int
	height    int
	showTrace bool

	// Snapshot of the session taken on the last refresh
	status      runstate.Status
	lastRunAt   time.Time
	turns       int
	totalTokens int64

	// submitting is set between ctrl+s and the Submit call returning so a
	// second ctrl+s cannot race the status change.
	submitting bool
	// turnsAtSubmit is the transcript length when ctrl+s was pressed. The
	// editor is cleared only if Submit added a turn.
	turnsAtSubmit int

	presets    []string
	nextPreset int

	// Time
	startedAt time.Time
	now       time.Time

	// Identity
	projectName string
	workDir     string
}

// New creates the workspace Model over sess. events may be nil, in which
// case the view refreshes on the one-second tick only.
func New(sess Session, events <-chan session.Event, opts Options) Model {
	now := time.Now()
	th := NewTheme(opts.AccentColor)
	layout := Calculate(80, 24, true)

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	trW, trH := innerDims(layout.Transcript)
	edW, edH := innerDims(layout.Editor)
	coW, coH := innerDims(layout.Console)
	tcW, tcH := innerDims(layout.Trace)

	m := Model{
		sess:        sess,
		events:      events,
		ctx:         ctx,
		transcript:  panels.NewTranscriptPanel(trW, trH, opts.MarkdownStyle),
		console:     panels.NewConsolePanel(coW, coH).SetAccent(th.Accent()),
		trace:       panels.NewTracePanel(tcW, tcH),
		editor:      components.NewEditor(edW, edH),
		layout:      layout,
		focus:       FocusEditor,
		theme:       th,
		width:       80,
		height:      24,
		showTrace:   true,
		startedAt:   now,
		now:         now,
		projectName: opts.ProjectName,
		workDir:     opts.WorkDir,
		presets:     opts.Presets,
	}
	return m.refresh()
}

// Init returns the initial commands: event listener + clock ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tickCmd())
}

// tickCmd schedules the next one-second clock tick.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the event channel and returns the next message.
func waitForEvent(ch <-chan session.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return sessionEventMsg(ev)
	}
}

// submitCmd runs Submit off the update loop.
func submitCmd(ctx context.Context, sess Session, request string) tea.Cmd {
	return func() tea.Msg {
		sess.Submit(ctx, request)
		return submittedMsg{}
	}
}

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.relayout(), nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case sessionEventMsg:
		return m.refresh(), waitForEvent(m.events)
	case eventsClosedMsg:
		return m.refresh(), nil
	case submittedMsg:
		m.submitting = false
		m = m.refresh()
		if m.turns > m.turnsAtSubmit {
			m.editor = m.editor.Reset()
		}
		return m, nil
	case tickMsg:
		m.now = time.Time(msg)
		return m.refresh(), tickCmd()
	}
	return m.delegateToFocused(msg)
}

// CanSubmit reports whether ctrl+s would send the editor text now.
func (m Model) CanSubmit() bool {
	return !m.submitting && m.status != runstate.StatusRunning && !m.editor.Empty()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit:
		return m, tea.Quit
	case keySubmit:
		if !m.CanSubmit() {
			return m, nil
		}
		request := m.editor.Value()
		m.editor = m.editor.SetDisabled(true)
		m.submitting = true
		m.turnsAtSubmit = m.turns
		return m, submitCmd(m.ctx, m.sess, request)
	case keyClear:
		m.sess.ClearConsole()
		return m.refresh(), nil
	case keyFilter:
		m.console = m.console.CycleFilter()
		return m.refresh(), nil
	case keyToggleTrace:
		m.showTrace = !m.showTrace
		if !m.showTrace && m.focus == FocusTrace {
			m.focus = FocusConsole
		}
		return m.relayout(), nil
	case keyApplyPatch:
		if t, ok := m.transcript.Selected(); ok && t.HasPatch {
			m.sess.ApplyPatch(t.ID)
			return m.refresh(), nil
		}
		return m, nil
	case keyPreset:
		return m.fillPreset(), nil
	case keyNextFocus:
		return m.setFocus(m.step(FocusTarget.Next)), nil
	case keyPrevFocus:
		return m.setFocus(m.step(FocusTarget.Prev)), nil
	}
	return m.delegateToFocused(msg)
}

// fillPreset replaces the editor text with the next preset and moves focus
// to the editor. It does nothing while the editor is disabled.
func (m Model) fillPreset() Model {
	if len(m.presets) == 0 || m.editor.Disabled() {
		return m
	}
	m.editor = m.editor.SetValue(m.presets[m.nextPreset])
	m.nextPreset = (m.nextPreset + 1) % len(m.presets)
	return m.setFocus(FocusEditor)
}

// step moves focus once, skipping the trace panel while it is hidden.
func (m Model) step(move func(FocusTarget) FocusTarget) FocusTarget {
	next := move(m.focus)
	if next == FocusTrace && !m.showTrace {
		next = move(next)
	}
	return next
}

func (m Model) setFocus(f FocusTarget) Model {
	m.focus = f
	if f == FocusEditor {
		m.editor = m.editor.Focus()
	} else {
		m.editor = m.editor.Blur()
	}
	return m
}

func (m Model) delegateToFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusEditor:
		m.editor, cmd = m.editor.Update(msg)
	case FocusTranscript:
		m.transcript, cmd = m.transcript.Update(msg)
		m = m.refreshTrace()
	case FocusConsole:
		m.console, cmd = m.console.Update(msg)
	case FocusTrace:
		m.trace, cmd = m.trace.Update(msg)
	}
	return m, cmd
}

func (m Model) relayout() Model {
	m.layout = Calculate(m.width, m.height, m.showTrace)
	if m.layout.TooSmall {
		return m
	}
	trW, trH := innerDims(m.layout.Transcript)
	edW, edH := innerDims(m.layout.Editor)
	coW, coH := innerDims(m.layout.Console)
	m.transcript = m.transcript.SetSize(trW, trH)
	m.editor = m.editor.SetSize(edW, edH)
	m.console = m.console.SetSize(coW, coH)
	if m.showTrace {
		tcW, tcH := innerDims(m.layout.Trace)
		m.trace = m.trace.SetSize(tcW, tcH)
	}
	return m.refresh()
}

// refresh re-reads every session snapshot. Events only say that something
// changed, so a dropped event is repaired by the next refresh.
func (m Model) refresh() Model {
	m.status = m.sess.Status()
	m.lastRunAt = m.sess.LastRunAt()

	turns := m.sess.Transcript()
	m.turns = len(turns)
	m.totalTokens = 0
	for _, t := range turns {
		if t.Trace != nil {
			m.totalTokens += t.Trace.Metrics.TotalTokens
		}
	}
	m.transcript = m.transcript.SetTurns(turns)

	coW, _ := innerDims(m.layout.Console)
	m.console = m.console.SetEntries(m.sess.Console().Entries(), func(e console.Entry) string {
		return m.theme.RenderLogLine(e, coW)
	})

	m.editor = m.editor.SetDisabled(m.submitting || m.status == runstate.StatusRunning)
	return m.refreshTrace()
}

func (m Model) refreshTrace() Model {
	t, ok := m.transcript.Selected()
	if !ok {
		return m
	}
	w, _ := innerDims(m.layout.Trace)
	title := fmt.Sprintf("Trace · turn %d", m.transcript.SelectedIndex()+1)
	m.trace = m.trace.Show(title, m.theme.RenderTraceLines(t, w))
	return m
}

// View renders the full workspace.
func (m Model) View() string {
	if m.layout.TooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nPlease resize to at least 80x24.", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Render(msg)
	}

	cfg := m.sess.Config()
	header := panels.RenderHeader(panels.HeaderProps{
		ProjectName: m.projectName,
		WorkDir:     m.workDir,
		Model:       cfg.Model,
		Turns:       m.turns,
		TotalTokens: m.totalTokens,
		StateSymbol: statusSymbol(m.status),
		StateLabel:  m.status.Label(),
		Elapsed:     m.now.Sub(m.startedAt),
		Clock:       m.now,
	}, m.layout.Header.Width, m.theme.AccentHeaderStyle())

	footer := panels.RenderFooter(panels.FooterProps{
		Focus:           m.focus.String(),
		StateLabel:      statusSymbol(m.status) + " " + m.status.Label(),
		Running:         m.status == runstate.StatusRunning,
		WebSearch:       cfg.WebSearch,
		CodeInterpreter: cfg.CodeInterpreter,
		LastRunAt:       m.lastRunAt,
		Now:             m.now,
		ConsoleFilter:   m.console.Filter().String(),
		TraceVisible:    m.showTrace,
		HasPresets:      len(m.presets) > 0,
	}, m.layout.Footer.Width)

	trW, trH := innerDims(m.layout.Transcript)
	edW, edH := innerDims(m.layout.Editor)
	coW, coH := innerDims(m.layout.Console)

	leftCol := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PanelBorderStyle(m.focus == FocusTranscript).
			Width(trW).Height(trH).
			Render(m.transcript.View()),
		m.theme.PanelBorderStyle(m.focus == FocusEditor).
			Width(edW).Height(edH).
			Render(m.editor.View()),
	)

	right := []string{
		m.theme.PanelBorderStyle(m.focus == FocusConsole).
			Width(coW).Height(coH).
			Render(m.console.View()),
	}
	if m.showTrace {
		tcW, tcH := innerDims(m.layout.Trace)
		right = append(right, m.theme.PanelBorderStyle(m.focus == FocusTrace).
			Width(tcW).Height(tcH).
			Render(m.trace.View()))
	}
	rightCol := lipgloss.JoinVertical(lipgloss.Left, right...)

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
