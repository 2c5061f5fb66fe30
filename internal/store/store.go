// Package store persists session events to a JSONL log and reads past
// sessions back. One store is opened per desk invocation in cmd/desk and
// attached to the orchestrator as an observer.
package store

import (
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// Record is one line of a session log.
type Record struct {
	Seq int64 `json:"seq"`
	session.Event
}

// Reader retrieves data about the current session.
type Reader interface {
	SessionSummary() (SessionSummary, error)
}

// SessionSummary summarises the current session.
type SessionSummary struct {
	SessionID   string
	StartedAt   time.Time
	Turns       int
	Runs        int
	Failures    int
	TotalTokens int64
	LastStatus  runstate.Status
}

// SessionInfo describes one session log file on disk.
type SessionInfo struct {
	ID      string
	Path    string
	ModTime time.Time
	Size    int64
}
