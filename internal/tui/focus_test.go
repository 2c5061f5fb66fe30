package tui

import (
	"testing"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
)

func TestFocusTarget_Next(t *testing.T) {
	tests := []struct {
		name  string
		input FocusTarget
		want  FocusTarget
	}{
		{"editor → transcript", FocusEditor, FocusTranscript},
		{"transcript → console", FocusTranscript, FocusConsole},
		{"console → trace", FocusConsole, FocusTrace},
		{"trace wraps → editor", FocusTrace, FocusEditor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.Next(); got != tt.want {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFocusTarget_Prev(t *testing.T) {
	tests := []struct {
		name  string
		input FocusTarget
		want  FocusTarget
	}{
		{"editor wraps → trace", FocusEditor, FocusTrace},
		{"transcript → editor", FocusTranscript, FocusEditor},
		{"console → transcript", FocusConsole, FocusTranscript},
		{"trace → console", FocusTrace, FocusConsole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.Prev(); got != tt.want {
				t.Errorf("Prev() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFocusTarget_String(t *testing.T) {
	tests := []struct {
		focus FocusTarget
		want  string
	}{
		{FocusEditor, "editor"},
		{FocusTranscript, "transcript"},
		{FocusConsole, "console"},
		{FocusTrace, "trace"},
		{FocusTarget(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.focus.String(); got != tt.want {
			t.Errorf("FocusTarget(%d).String() = %q, want %q", tt.focus, got, tt.want)
		}
	}
}

func TestStatusSymbol(t *testing.T) {
	tests := []struct {
		status runstate.Status
		want   string
	}{
		{runstate.StatusIdle, "✓"},
		{runstate.StatusRunning, "●"},
		{runstate.StatusError, "✗"},
		{runstate.Status(42), "?"},
	}
	for _, tt := range tests {
		if got := statusSymbol(tt.status); got != tt.want {
			t.Errorf("statusSymbol(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
