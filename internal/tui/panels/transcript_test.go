package panels

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

func sampleTurns() []session.Turn {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	return []session.Turn{
		{ID: "u1", Role: session.RoleUser, Content: "add a webhook", CreatedAt: at},
		{ID: "a1", Role: session.RoleAssistant, Content: "Use the **orders** endpoint", CreatedAt: at.Add(time.Second)},
		{ID: "u2", Role: session.RoleUser, Content: "show the code", CreatedAt: at.Add(2 * time.Second)},
		{ID: "a2", Role: session.RoleAssistant, Content: "```go\nfmt.Println(1)\n```", HasPatch: true, CreatedAt: at.Add(3 * time.Second)},
	}
}

func newTestTranscript(turns []session.Turn) TranscriptPanel {
	return NewTranscriptPanel(70, 40, "notty").SetTurns(turns)
}

func TestTranscript_Empty(t *testing.T) {
	p := NewTranscriptPanel(70, 10, "notty")
	if _, ok := p.Selected(); ok {
		t.Error("empty transcript should have no selection")
	}
	if !strings.Contains(p.View(), "No turns yet") {
		t.Errorf("missing placeholder: %q", p.View())
	}
}

func TestTranscript_RendersTurns(t *testing.T) {
	view := newTestTranscript(sampleTurns()).View()
	for _, want := range []string{"You", "Agent", "add a webhook", "orders", "fmt.Println(1)", "[patch]", "10:00:03"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestTranscript_SelectsNewestTurn(t *testing.T) {
	turns := sampleTurns()
	p := newTestTranscript(turns[:2])
	if got, _ := p.Selected(); got.ID != "a1" {
		t.Fatalf("selected: got %q, want a1", got.ID)
	}
	p = p.SetTurns(turns)
	if got, _ := p.Selected(); got.ID != "a2" {
		t.Errorf("selection should follow new turns: got %q", got.ID)
	}
}

func TestTranscript_SelectionStaysWhenBrowsing(t *testing.T) {
	turns := sampleTurns()
	p := newTestTranscript(turns[:3]).Select(0)
	p = p.SetTurns(turns)
	if got, _ := p.Selected(); got.ID != "u1" {
		t.Errorf("selection moved while browsing: got %q", got.ID)
	}
}

func TestTranscript_Keys(t *testing.T) {
	p := newTestTranscript(sampleTurns())
	tests := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, 2},
		{tea.KeyMsg{Type: tea.KeyUp}, 1},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")}, 0},
		{tea.KeyMsg{Type: tea.KeyUp}, 0}, // clamps at the top
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, 1},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")}, 3},
		{tea.KeyMsg{Type: tea.KeyDown}, 3}, // clamps at the bottom
	}
	for _, tt := range tests {
		p, _ = p.Update(tt.key)
		if p.SelectedIndex() != tt.want {
			t.Errorf("after %q: selected %d, want %d", tt.key.String(), p.SelectedIndex(), tt.want)
		}
	}
}

func TestTranscript_SelectedMarker(t *testing.T) {
	p := newTestTranscript(sampleTurns()).Select(0)
	lines := strings.Split(p.View(), "\n")
	if !strings.HasPrefix(lines[0], "▶ ") {
		t.Errorf("first turn should carry the selection marker: %q", lines[0])
	}
}

func TestTranscript_SetSizeDropsCache(t *testing.T) {
	p := newTestTranscript(sampleTurns())
	if len(p.cache) == 0 {
		t.Fatal("expected rendered assistant bodies to be cached")
	}
	p = p.SetSize(50, 20)
	if p.width != 50 || p.height != 20 {
		t.Errorf("size: got %dx%d", p.width, p.height)
	}
	p2 := p.SetSize(50, 30)
	if len(p2.cache) == 0 {
		t.Error("height-only resize should keep the cache")
	}
}
