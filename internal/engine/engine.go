// Package engine defines the contract between the session orchestrator and
// the agent execution engine that actually answers requests.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/history"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

// SearchContextSize controls how much web context the engine may pull in.
type SearchContextSize string

const (
	SearchContextSmall  SearchContextSize = "small"
	SearchContextMedium SearchContextSize = "medium"
	SearchContextLarge  SearchContextSize = "large"
)

// Valid reports whether s is one of the known sizes.
func (s SearchContextSize) Valid() bool {
	switch s {
	case SearchContextSmall, SearchContextMedium, SearchContextLarge:
		return true
	}
	return false
}

// ReasoningEffort controls how long a reasoning model may think.
type ReasoningEffort string

const (
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// Valid reports whether e is one of the known efforts.
func (e ReasoningEffort) Valid() bool {
	switch e {
	case ReasoningLow, ReasoningMedium, ReasoningHigh:
		return true
	}
	return false
}

// reasoningModelPrefixes name the model families that accept a reasoning
// effort.
var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

// SupportsReasoning reports whether model accepts a reasoning effort.
// Other models reject requests that carry one.
func SupportsReasoning(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, p := range reasoningModelPrefixes {
		if m == p || strings.HasPrefix(m, p+"-") || strings.HasPrefix(m, p+".") {
			return true
		}
	}
	return false
}

// Config is the effective agent configuration for one run.
type Config struct {
	AllowedDomains    []string
	Model             string
	SearchContextSize SearchContextSize
	ReasoningEffort   ReasoningEffort
	Credential        string

	WebSearch         bool
	CodeInterpreter   bool
	StoreConversation bool
}

// String renders the config with the credential redacted.
func (c Config) String() string {
	cred := "unset"
	if c.Credential != "" {
		cred = "(hidden)"
	}
	return fmt.Sprintf("model=%s search=%s effort=%s domains=%v credential=%s",
		c.Model, c.SearchContextSize, c.ReasoningEffort, c.AllowedDomains, cred)
}

// Request is the input to one engine run.
type Request struct {
	Text    string
	Config  Config
	History []history.Item
}

// Result is the output of a successful engine run.
type Result struct {
	OutputText     string
	UpdatedHistory []history.Item
	Trace          *trace.Record
}

// Engine answers a request given the conversation so far. Any returned
// error is treated uniformly as an execution failure by the caller.
type Engine interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Func adapts an ordinary function to the Engine interface.
type Func func(ctx context.Context, req Request) (Result, error)

// Run calls f(ctx, req).
func (f Func) Run(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
