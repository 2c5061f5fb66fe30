package tui

import "github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"

// FocusTarget identifies which panel currently holds keyboard focus.
type FocusTarget int

const (
	FocusEditor     FocusTarget = iota // Left bottom: request editor
	FocusTranscript                    // Left top: conversation transcript
	FocusConsole                       // Right top: console log
	FocusTrace                         // Right bottom: trace of the selected turn
)

const focusCount = 4

// Next returns the next focus target in forward tab order.
func (f FocusTarget) Next() FocusTarget {
	return (f + 1) % focusCount
}

// Prev returns the previous focus target in reverse tab order.
func (f FocusTarget) Prev() FocusTarget {
	return (f + focusCount - 1) % focusCount
}

// String returns the human-readable name of the focus target.
func (f FocusTarget) String() string {
	switch f {
	case FocusEditor:
		return "editor"
	case FocusTranscript:
		return "transcript"
	case FocusConsole:
		return "console"
	case FocusTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// statusSymbol returns a single-character symbol for a run status.
func statusSymbol(s runstate.Status) string {
	switch s {
	case runstate.StatusIdle:
		return "✓"
	case runstate.StatusRunning:
		return "●"
	case runstate.StatusError:
		return "✗"
	default:
		return "?"
	}
}
