package session

import (
	"fmt"
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
)

// EventKind identifies the type of a session event.
type EventKind int

const (
	EventTurn           EventKind = iota // A turn was appended to the transcript
	EventLog                             // A console entry was appended
	EventStatus                          // The run status changed
	EventConsoleCleared                  // The console log was cleared
)

var eventKindNames = map[EventKind]string{
	EventTurn:           "turn",
	EventLog:            "log",
	EventStatus:         "status",
	EventConsoleCleared: "console_cleared",
}

// String returns the snake_case name of the kind.
func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *EventKind) UnmarshalText(b []byte) error {
	for kind, name := range eventKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("session: unknown event kind %q", b)
}

// Event is a structured notification emitted by the orchestrator after each
// state change. Events are emitted in the order the changes happened.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Turn is set for EventTurn.
	Turn *Turn `json:"turn,omitempty"`

	// Log is set for EventLog.
	Log *console.Entry `json:"log,omitempty"`

	// From and To are set for EventStatus.
	From runstate.Status `json:"from"`
	To   runstate.Status `json:"to"`
}

// Observer receives every event synchronously, in order. Observers must not
// call back into the Orchestrator.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// RunReport summarises one finished engine run for hooks such as metrics and
// notifications.
type RunReport struct {
	TurnID        string
	Request       string
	Model         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Err           error
	TotalTokens   int64
	ToolCalls     int
	SearchQueries int
}

// Duration returns how long the run took.
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed without error.
func (r RunReport) Succeeded() bool {
	return r.Err == nil
}

// RunHook is called once per finished run, after its events were emitted.
type RunHook func(RunReport)
