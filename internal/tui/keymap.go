package tui

// Global keys. Every global key is a ctrl chord or tab so none of them
// collide with text typed into the editor.
const (
	keySubmit      = "ctrl+s"
	keyClear       = "ctrl+l"
	keyFilter      = "ctrl+f"
	keyToggleTrace = "ctrl+t"
	keyApplyPatch  = "ctrl+p"
	keyPreset      = "ctrl+r"
	keyQuit        = "ctrl+c"
	keyNextFocus   = "tab"
	keyPrevFocus   = "shift+tab"
)

// GlobalKeyBindings lists the keys that are always handled by the root model
// before dispatching to focused panels.
var GlobalKeyBindings = []string{
	keySubmit, keyClear, keyFilter, keyToggleTrace, keyApplyPatch, keyPreset, keyQuit,
	keyNextFocus, keyPrevFocus,
}

// panelKeys maps each FocusTarget to the keys that panel handles internally.
// The editor takes all other input as text.
var panelKeys = map[FocusTarget][]string{
	FocusEditor:     {"enter"},
	FocusTranscript: {"j", "k", "up", "down", "g", "G", "pgup", "pgdown"},
	FocusConsole:    {"f", "up", "down", "pgup", "pgdown"},
	FocusTrace:      {"up", "down", "pgup", "pgdown"},
}

// IsGlobalKey reports whether key is a global keybinding (handled before panel dispatch).
func IsGlobalKey(key string) bool {
	for _, k := range GlobalKeyBindings {
		if k == key {
			return true
		}
	}
	return false
}

// PanelKeys returns the list of keys handled by the given focused panel.
func PanelKeys(focus FocusTarget) []string {
	return panelKeys[focus]
}
