// Package trace defines the structured execution telemetry attached to one
// assistant answer: tool calls, search queries, execution logs and metrics.
package trace

import (
	"errors"
	"fmt"
	"time"
)

// ToolCall is one tool invocation made by the engine while answering.
type ToolCall struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Input      string `json:"input"`
	Output     string `json:"output"`
	DurationMs int64  `json:"duration_ms"`
}

// SearchQuery is one web search issued by the engine.
type SearchQuery struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
	DurationMs  int64  `json:"duration_ms"`
}

// ExecutionLog is a free-form progress line emitted by the engine.
type ExecutionLog struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Metrics summarises the cost of one run.
type Metrics struct {
	TotalTokens    int64     `json:"total_tokens"`
	TotalLatencyMs int64     `json:"total_latency_ms"`
	RequestTime    time.Time `json:"request_time"`
}

// Record is the telemetry for one run. Treat it as immutable once produced.
type Record struct {
	ToolCalls     []ToolCall     `json:"tool_calls"`
	SearchQueries []SearchQuery  `json:"search_queries"`
	ExecutionLogs []ExecutionLog `json:"execution_logs"`
	Metrics       Metrics        `json:"metrics"`
}

// Validate reports every malformed field joined together.
func (r *Record) Validate() error {
	var errs []error

	for i, c := range r.ToolCalls {
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("tool_calls[%d].id must not be empty", i))
		}
		if c.DurationMs < 0 {
			errs = append(errs, fmt.Errorf("tool_calls[%d].duration_ms must be >= 0", i))
		}
	}
	for i, q := range r.SearchQueries {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("search_queries[%d].id must not be empty", i))
		}
		if q.ResultCount < 0 {
			errs = append(errs, fmt.Errorf("search_queries[%d].result_count must be >= 0", i))
		}
		if q.DurationMs < 0 {
			errs = append(errs, fmt.Errorf("search_queries[%d].duration_ms must be >= 0", i))
		}
	}
	for i, l := range r.ExecutionLogs {
		if l.ID == "" {
			errs = append(errs, fmt.Errorf("execution_logs[%d].id must not be empty", i))
		}
	}
	if r.Metrics.TotalTokens < 0 {
		errs = append(errs, fmt.Errorf("metrics.total_tokens must be >= 0"))
	}
	if r.Metrics.TotalLatencyMs < 0 {
		errs = append(errs, fmt.Errorf("metrics.total_latency_ms must be >= 0"))
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy of r. A nil receiver yields nil.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{Metrics: r.Metrics}
	if r.ToolCalls != nil {
		out.ToolCalls = append([]ToolCall(nil), r.ToolCalls...)
	}
	if r.SearchQueries != nil {
		out.SearchQueries = append([]SearchQuery(nil), r.SearchQueries...)
	}
	if r.ExecutionLogs != nil {
		out.ExecutionLogs = append([]ExecutionLog(nil), r.ExecutionLogs...)
	}
	return out
}

// ToolDuration sums the duration of every tool call.
func (r *Record) ToolDuration() time.Duration {
	var ms int64
	for _, c := range r.ToolCalls {
		ms += c.DurationMs
	}
	return time.Duration(ms) * time.Millisecond
}
