// Package console implements the append-only, severity-tagged event log shown
// in the workspace console panel.
package console

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity tags a console entry.
type Severity int

const (
	SeverityInfo  Severity = iota // Informational progress message
	SeverityWarn                  // Something unexpected but non-fatal
	SeverityError                 // A failed or rejected operation
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity maps "info", "warn" or "error" to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "info":
		return SeverityInfo, true
	case "warn":
		return SeverityWarn, true
	case "error":
		return SeverityError, true
	}
	return 0, false
}

// MarshalText encodes the severity by name so persisted logs stay readable.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name. Unknown names decode as info.
func (s *Severity) UnmarshalText(b []byte) error {
	v, ok := ParseSeverity(string(b))
	if !ok {
		v = SeverityInfo
	}
	*s = v
	return nil
}

// Filter selects console entries. FilterAll matches every severity.
type Filter struct {
	all      bool
	severity Severity
}

// FilterAll matches every entry.
var FilterAll = Filter{all: true}

// Only returns a filter matching entries of exactly severity s.
func Only(s Severity) Filter {
	return Filter{severity: s}
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e Entry) bool {
	return f.all || e.Severity == f.severity
}

// String returns "all" or the severity name.
func (f Filter) String() string {
	if f.all {
		return "all"
	}
	return f.severity.String()
}

// Next cycles all → info → warn → error → all.
func (f Filter) Next() Filter {
	switch {
	case f.all:
		return Only(SeverityInfo)
	case f.severity == SeverityError:
		return FilterAll
	default:
		return Only(f.severity + 1)
	}
}

// Entry is one console log line. Entries are never mutated after Append.
type Entry struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the session console. The zero value is ready to use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// New creates an empty Log.
func New() *Log {
	return &Log{}
}

// Append records a new entry at the end of the log and returns it.
func (l *Log) Append(severity Severity, message string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := Entry{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		Timestamp: l.clock(),
	}
	l.entries = append(l.entries, e)
	return e
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// Entries returns a copy of every entry in append order.
func (l *Log) Entries() []Entry {
	return l.Filter(FilterAll)
}

// Filter returns a copy of the entries that match f, in append order.
func (l *Log) Filter(f Filter) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}
