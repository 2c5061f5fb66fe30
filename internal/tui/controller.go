package tui

import (
	"context"
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// Session is the part of *session.Orchestrator the workspace drives. All
// reads return snapshots; Submit must not block on the engine.
type Session interface {
	// Submit hands a request to the engine. Rejected while running.
	Submit(ctx context.Context, request string)

	// ApplyPatch marks the patch in the given assistant turn as applied.
	ApplyPatch(turnID string)

	// ClearConsole empties the console log.
	ClearConsole()

	Transcript() []session.Turn
	Console() *console.Log
	Status() runstate.Status
	Config() engine.Config
	LastRunAt() time.Time
}

var _ Session = (*session.Orchestrator)(nil)
