package store

import (
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// fileIndex keeps running session totals. It is updated by add as each
// record is written, so a summary never rereads the file.
//
// A run is counted when the session enters running and a failure when it
// enters error. Recovery back to idle counts as neither.
type fileIndex struct {
	turns       int
	runs        int
	failures    int
	totalTokens int64
	lastStatus  runstate.Status
}

func (idx *fileIndex) add(rec Record) {
	switch rec.Kind {
	case session.EventTurn:
		if rec.Turn == nil {
			return
		}
		idx.turns++
		if rec.Turn.Trace != nil {
			idx.totalTokens += rec.Turn.Trace.Metrics.TotalTokens
		}
	case session.EventStatus:
		idx.lastStatus = rec.To
		switch rec.To {
		case runstate.StatusRunning:
			idx.runs++
		case runstate.StatusError:
			idx.failures++
		}
	}
}

func (idx *fileIndex) summary(id string) SessionSummary {
	return SessionSummary{
		SessionID:   id,
		Turns:       idx.turns,
		Runs:        idx.runs,
		Failures:    idx.failures,
		TotalTokens: idx.totalTokens,
		LastStatus:  idx.lastStatus,
	}
}

// Summarize totals a session read back with ReadSession the same way the
// live log totals itself. StartedAt is the timestamp of the first record.
func Summarize(id string, recs []Record) SessionSummary {
	var idx fileIndex
	for _, r := range recs {
		idx.add(r)
	}
	s := idx.summary(id)
	if len(recs) > 0 {
		s.StartedAt = recs[0].Timestamp
	}
	return s
}
