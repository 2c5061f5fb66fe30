package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// LogView is a scrollable panel body that wraps bubbles/viewport. Panels
// refresh it from session snapshots with SetContent. In follow mode
// (default) new content scrolls the view to the bottom; scrolling up with
// a key or the mouse leaves follow mode.
type LogView struct {
	vp     viewport.Model
	lines  []string // rendered (pre-styled) lines
	follow bool
	width  int
	height int
}

// NewLogView creates a LogView with the given dimensions, initially in follow mode.
func NewLogView(w, h int) LogView {
	return LogView{
		vp:     viewport.New(w, h),
		follow: true,
		width:  w,
		height: h,
	}
}

// SetContent replaces all lines. Outside follow mode the scroll offset is
// kept, clamped to the new content.
func (v LogView) SetContent(lines []string) LogView {
	v.lines = make([]string, len(lines))
	copy(v.lines, lines)
	offset := v.vp.YOffset
	v.vp.SetContent(strings.Join(v.lines, "\n"))
	if v.follow {
		v.vp.GotoBottom()
	} else {
		v.vp.SetYOffset(offset)
	}
	return v
}

// Clear removes every line and re-enters follow mode.
func (v LogView) Clear() LogView {
	v.follow = true
	return v.SetContent(nil)
}

// Len returns the number of lines held.
func (v LogView) Len() int {
	return len(v.lines)
}

// EnsureVisible scrolls the minimum amount needed for line to be on screen
// and leaves follow mode unless line is the last one.
func (v LogView) EnsureVisible(line int) LogView {
	if line < 0 || line >= len(v.lines) {
		return v
	}
	switch {
	case line < v.vp.YOffset:
		v.vp.SetYOffset(line)
	case line >= v.vp.YOffset+v.height:
		v.vp.SetYOffset(line - v.height + 1)
	}
	v.follow = line == len(v.lines)-1 && v.vp.AtBottom()
	return v
}

// ToggleFollow switches follow mode on or off.
// When turned on, scrolls immediately to the bottom.
func (v LogView) ToggleFollow() LogView {
	v.follow = !v.follow
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// SetSize resizes the log view to the given dimensions.
func (v LogView) SetSize(w, h int) LogView {
	v.width = w
	v.height = h
	v.vp.Width = w
	v.vp.Height = h
	if v.follow {
		v.vp.GotoBottom()
	}
	return v
}

// Following reports whether follow mode is currently active.
func (v LogView) Following() bool {
	return v.follow
}

// Offset returns the index of the first visible line.
func (v LogView) Offset() int {
	return v.vp.YOffset
}

// Update handles bubbletea messages (scroll keys, mouse events).
func (v LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	if v.follow && !v.vp.AtBottom() {
		// Resize messages must not end follow mode.
		switch msg.(type) {
		case tea.KeyMsg, tea.MouseMsg:
			v.follow = false
		}
	}
	return v, cmd
}

// View renders the log view content.
func (v LogView) View() string {
	return v.vp.View()
}
