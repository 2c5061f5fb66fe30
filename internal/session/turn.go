package session

import (
	"strings"
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the visible transcript. Turns are never modified after
// they are appended; Trace is set only on assistant turns produced by a
// successful run.
type Turn struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	HasPatch  bool          `json:"has_patch"`
	CreatedAt time.Time     `json:"created_at"`
	Trace     *trace.Record `json:"trace,omitempty"`
}

// clone returns t with its own copy of the trace, so callers cannot reach
// the stored record.
func (t Turn) clone() Turn {
	t.Trace = t.Trace.Clone()
	return t
}

// patchMarkers are the substrings that make an answer look like it carries
// applicable changes.
var patchMarkers = []string{"PATCH", "```"}

// DetectPatch is a best-effort syntactic check for a patch marker or a fenced
// code block. False positives and negatives are expected.
func DetectPatch(text string) bool {
	for _, m := range patchMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// preview returns the first n runes of s followed by an ellipsis.
func preview(s string, n int) string {
	r := []rune(s)
	if n > 0 && len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}
