package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	editorPlaceholder  = "Describe the change you want, then press ctrl+s"
	runningPlaceholder = "Agent is working…"
)

// Editor is the multi-line request input. While disabled it ignores typed
// input, which is how the workspace keeps a second submission from being
// composed while a run is in flight.
type Editor struct {
	ta       textarea.Model
	disabled bool
}

// NewEditor creates a focused, empty Editor.
func NewEditor(w, h int) Editor {
	ta := textarea.New()
	ta.Placeholder = editorPlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "┃ "
	ta.SetWidth(w)
	ta.SetHeight(h)
	ta.Focus()
	return Editor{ta: ta}
}

// Value returns the current text.
func (e Editor) Value() string {
	return e.ta.Value()
}

// Empty reports whether the text is blank.
func (e Editor) Empty() bool {
	return strings.TrimSpace(e.ta.Value()) == ""
}

// SetValue replaces the text.
func (e Editor) SetValue(s string) Editor {
	e.ta.SetValue(s)
	return e
}

// Reset clears the text.
func (e Editor) Reset() Editor {
	e.ta.Reset()
	return e
}

// SetDisabled enables or disables input. The text is kept either way.
func (e Editor) SetDisabled(disabled bool) Editor {
	e.disabled = disabled
	if disabled {
		e.ta.Placeholder = runningPlaceholder
	} else {
		e.ta.Placeholder = editorPlaceholder
	}
	return e
}

// Disabled reports whether input is currently ignored.
func (e Editor) Disabled() bool {
	return e.disabled
}

// Focus gives the editor the cursor.
func (e Editor) Focus() Editor {
	e.ta.Focus()
	return e
}

// Blur removes the cursor.
func (e Editor) Blur() Editor {
	e.ta.Blur()
	return e
}

// Focused reports whether the editor has the cursor.
func (e Editor) Focused() bool {
	return e.ta.Focused()
}

// SetSize resizes the text area.
func (e Editor) SetSize(w, h int) Editor {
	e.ta.SetWidth(w)
	e.ta.SetHeight(h)
	return e
}

// Update forwards messages to the text area. Key presses are dropped while
// disabled.
func (e Editor) Update(msg tea.Msg) (Editor, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok && e.disabled {
		return e, nil
	}
	var cmd tea.Cmd
	e.ta, cmd = e.ta.Update(msg)
	return e, cmd
}

// View renders the editor.
func (e Editor) View() string {
	return e.ta.View()
}
