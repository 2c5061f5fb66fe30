package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/store"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

func assertContains(t *testing.T, got string, contains, excludes []string) {
	t.Helper()
	for _, want := range contains {
		if !strings.Contains(got, want) {
			t.Errorf("output should contain %q\ngot:\n%s", want, got)
		}
	}
	for _, exclude := range excludes {
		if strings.Contains(got, exclude) {
			t.Errorf("output should NOT contain %q\ngot:\n%s", exclude, got)
		}
	}
}

func TestFormatLogLine(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)
	tests := []struct {
		name  string
		entry console.Entry
		want  string
	}{
		{"info", console.Entry{Severity: console.SeverityInfo, Message: "Running request: hi...", Timestamp: ts}, "[14:05:09] info  Running request: hi..."},
		{"warn", console.Entry{Severity: console.SeverityWarn, Message: "busy", Timestamp: ts}, "[14:05:09] warn  busy"},
		{"error", console.Entry{Severity: console.SeverityError, Message: "API key is missing", Timestamp: ts}, "[14:05:09] error API key is missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.entry); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCreated(t *testing.T) {
	tests := []struct {
		name     string
		created  []string
		contains []string
		excludes []string
	}{
		{"nothing created", nil, []string{"All files already exist"}, []string{"Created"}},
		{"two files", []string{"/p/desk.toml", "/p/.gitignore"}, []string{"Created /p/desk.toml\n", "Created /p/.gitignore\n"}, []string{"already exist"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, formatCreated(tt.created), tt.contains, tt.excludes)
		})
	}
}

func TestFormatTraceSummary(t *testing.T) {
	tests := []struct {
		name     string
		rec      *trace.Record
		contains []string
		excludes []string
	}{
		{name: "no trace", rec: nil, contains: []string{"No trace recorded."}, excludes: []string{"Tokens:"}},
		{
			name: "tools and searches",
			rec: &trace.Record{
				ToolCalls:     []trace.ToolCall{{ID: "c1", Name: "code_interpreter"}},
				SearchQueries: []trace.SearchQuery{{ID: "s1", Query: "salla webhooks", ResultCount: 3}},
				Metrics:       trace.Metrics{TotalTokens: 42, TotalLatencyMs: 815},
			},
			contains: []string{"Trace", "Tokens:", "42", "815ms", "- code_interpreter", "- salla webhooks (3 results)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, formatTraceSummary(tt.rec), tt.contains, tt.excludes)
		})
	}
}

func TestLastAnswer(t *testing.T) {
	user := session.Turn{ID: "u1", Role: session.RoleUser, Content: "q"}
	agent := session.Turn{ID: "a1", Role: session.RoleAssistant, Content: "a"}

	tests := []struct {
		name   string
		turns  []session.Turn
		wantID string
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"answered", []session.Turn{user, agent}, "a1", true},
		{"unanswered follow-up", []session.Turn{user, agent, {ID: "u2", Role: session.RoleUser}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lastAnswer(tt.turns)
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("got (%q, %v), want (%q, %v)", got.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestAskFailure(t *testing.T) {
	entries := []console.Entry{
		{Severity: console.SeverityError, Message: "first failure"},
		{Severity: console.SeverityInfo, Message: "Running request: x..."},
		{Severity: console.SeverityError, Message: "Request failed: boom"},
		{Severity: console.SeverityWarn, Message: "later warning"},
	}
	if err := askFailure(entries); err == nil || err.Error() != "Request failed: boom" {
		t.Errorf("got %v, want the last error entry", err)
	}
	if err := askFailure(nil); err == nil {
		t.Error("expected a generic error without entries")
	}
}

func TestFormatSessionLine(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	recs := []store.Record{
		{Seq: 1, Event: session.Event{Kind: session.EventTurn, Turn: &session.Turn{Role: session.RoleUser}}},
		{Seq: 2, Event: session.Event{Kind: session.EventStatus, From: runstate.StatusIdle, To: runstate.StatusRunning}},
		{Seq: 3, Event: session.Event{Kind: session.EventTurn, Turn: &session.Turn{Role: session.RoleAssistant, Trace: &trace.Record{Metrics: trace.Metrics{TotalTokens: 30}}}}},
		{Seq: 4, Event: session.Event{Kind: session.EventStatus, From: runstate.StatusRunning, To: runstate.StatusIdle}},
		{Seq: 5, Event: session.Event{Kind: session.EventStatus, From: runstate.StatusIdle, To: runstate.StatusRunning}},
		{Seq: 6, Event: session.Event{Kind: session.EventStatus, From: runstate.StatusRunning, To: runstate.StatusError}},
		{Seq: 7, Event: session.Event{Kind: session.EventLog, Log: &console.Entry{Message: "x"}}},
	}
	got := formatSessionLine(store.Summarize("1700000000-42", recs), ts)
	assertContains(t, got, []string{"1700000000-42", "2026-03-01 09:30:00", "2 turns", "2 runs", "1 failed", "30 tokens"}, nil)
}

type fakeReader struct {
	sum store.SessionSummary
	err error
}

func (f fakeReader) SessionSummary() (store.SessionSummary, error) { return f.sum, f.err }

func TestFormatLiveSummary(t *testing.T) {
	tests := []struct {
		name   string
		reader fakeReader
		want   string
	}{
		{
			name:   "totals",
			reader: fakeReader{sum: store.SessionSummary{SessionID: "s1", Turns: 2, Runs: 1, TotalTokens: 64}},
			want:   "Session s1: 2 turns, 1 runs, 0 failed, 64 tokens",
		},
		{
			name:   "error",
			reader: fakeReader{err: errors.New("closed")},
			want:   "session summary unavailable: closed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLiveSummary(tt.reader); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSessionListEmpty(t *testing.T) {
	dir := t.TempDir()
	got, err := formatSessionList(dir)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, got, []string{"No sessions recorded"}, []string{"Sessions\n"})
}

func TestFormatTranscript(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		recs     []store.Record
		contains []string
		excludes []string
	}{
		{name: "no turns", recs: nil, contains: []string{"Session s1", "No turns recorded."}},
		{
			name: "request and patch answer",
			recs: []store.Record{
				{Event: session.Event{Kind: session.EventTurn, Turn: &session.Turn{Role: session.RoleUser, Content: "add a webhook", CreatedAt: ts}}},
				{Event: session.Event{Kind: session.EventLog, Log: &console.Entry{Message: "Running request: add..."}}},
				{Event: session.Event{Kind: session.EventTurn, Turn: &session.Turn{
					Role: session.RoleAssistant, Content: "```go\nfunc x() {}\n```\n", HasPatch: true, CreatedAt: ts,
					Trace: &trace.Record{Metrics: trace.Metrics{TotalTokens: 12}},
				}}},
			},
			contains: []string{"[09:30:00] You\nadd a webhook", "Agent [patch] (12 tokens)", "func x() {}"},
			excludes: []string{"Running request", "No turns recorded."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, formatTranscript("s1", tt.recs), tt.contains, tt.excludes)
		})
	}
}

func TestRenderMarkdownPlain(t *testing.T) {
	got, err := renderMarkdown("# Title\n\nSome *text* here.", 60, false)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, got, []string{"Title", "text", "here."}, nil)
}

func TestTerminalWidthNonFile(t *testing.T) {
	var b strings.Builder
	width, tty := terminalWidth(&b)
	if tty || width != 80 {
		t.Errorf("got (%d, %v), want (80, false)", width, tty)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"ask", "init", "sessions"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if c, _, err := root.Find([]string{"sessions", "show"}); err != nil || c.Name() != "show" {
		t.Error("sessions show not registered")
	}
	for _, flag := range []string{"config", "engine"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
	if got := root.PersistentFlags().Lookup("engine").DefValue; got != engineResponses {
		t.Errorf("default engine: got %q", got)
	}
}
