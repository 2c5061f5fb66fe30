package tui

import (
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// sessionEventMsg wraps an orchestrator event. Events are refresh signals;
// the model always re-reads session snapshots.
type sessionEventMsg session.Event

// eventsClosedMsg signals the event channel closed.
type eventsClosedMsg struct{}

// tickMsg is sent every second for the clock and as a catch-up refresh for
// events dropped by the non-blocking fan-out.
type tickMsg time.Time

// submittedMsg reports that Submit returned for a request.
type submittedMsg struct{}
