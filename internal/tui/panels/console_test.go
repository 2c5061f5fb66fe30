package panels

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
)

func plainLine(e console.Entry) string {
	return e.Severity.String() + ": " + e.Message
}

func sampleEntries() []console.Entry {
	return []console.Entry{
		{ID: "1", Severity: console.SeverityInfo, Message: "Running request: hi..."},
		{ID: "2", Severity: console.SeverityWarn, Message: "A request is already running"},
		{ID: "3", Severity: console.SeverityInfo, Message: "Request completed successfully"},
		{ID: "4", Severity: console.SeverityError, Message: "Error: boom"},
	}
}

func TestConsolePanel_AllShowsEverything(t *testing.T) {
	p := NewConsolePanel(80, 10).SetEntries(sampleEntries(), plainLine)
	view := p.View()
	for _, want := range []string{"info: Running request", "warn: A request", "error: Error: boom"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
	for _, badge := range []string{"All 4", "Info 2", "Warn 1", "Error 1"} {
		if !strings.Contains(view, badge) {
			t.Errorf("tab bar missing badge %q:\n%s", badge, view)
		}
	}
}

func TestConsolePanel_CycleFilter(t *testing.T) {
	entries := sampleEntries()
	tests := []struct {
		filter  string
		shown   []string
		notShow []string
	}{
		{"info", []string{"Running request", "completed"}, []string{"already running", "boom"}},
		{"warn", []string{"already running"}, []string{"Running request", "boom"}},
		{"error", []string{"boom"}, []string{"Running request", "already running"}},
		{"all", []string{"Running request", "already running", "boom"}, nil},
	}

	p := NewConsolePanel(80, 10)
	for _, tt := range tests {
		p = p.CycleFilter().SetEntries(entries, plainLine)
		if p.Filter().String() != tt.filter {
			t.Fatalf("filter: got %q, want %q", p.Filter(), tt.filter)
		}
		view := p.View()
		for _, want := range tt.shown {
			if !strings.Contains(view, want) {
				t.Errorf("filter %s: missing %q", tt.filter, want)
			}
		}
		for _, hidden := range tt.notShow {
			if strings.Contains(view, hidden) {
				t.Errorf("filter %s: should hide %q", tt.filter, hidden)
			}
		}
		if p.tabbar.Active() != filterIndex(p.Filter()) {
			t.Errorf("filter %s: active tab %d", tt.filter, p.tabbar.Active())
		}
	}
}

func TestConsolePanel_EmptyPlaceholder(t *testing.T) {
	p := NewConsolePanel(80, 10).SetEntries(nil, plainLine)
	if !strings.Contains(p.View(), "No entries.") {
		t.Errorf("missing placeholder: %q", p.View())
	}
	if !strings.Contains(p.View(), "All 0") {
		t.Errorf("empty console should show zero counts: %q", p.View())
	}
}

func TestConsolePanel_ToggleFollow(t *testing.T) {
	p := NewConsolePanel(80, 10)
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if p.Following() {
		t.Error("f should turn follow mode off")
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if !p.Following() {
		t.Error("second f should turn follow mode back on")
	}
}

func TestConsolePanel_SetSize(t *testing.T) {
	p := NewConsolePanel(80, 10).SetSize(40, 1)
	if p.width != 40 || p.height != 1 {
		t.Errorf("size: got %dx%d", p.width, p.height)
	}
}
