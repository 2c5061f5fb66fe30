package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/history"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

// Echo is an offline engine that repeats the request back. It keeps a
// well-formed history so multi-turn behaviour can be exercised without a
// network connection.
type Echo struct {
	// Delay simulates engine latency.
	Delay time.Duration
}

type echoItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Run answers with the request text and a synthetic trace.
func (e Echo) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if e.Delay > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(e.Delay):
		}
	}

	turn := len(req.History)/2 + 1
	answer := fmt.Sprintf("Echo (turn %d): %s", turn, req.Text)

	hist := append([]history.Item(nil), req.History...)
	for _, it := range []echoItem{{Role: "user", Content: req.Text}, {Role: "assistant", Content: answer}} {
		data, err := json.Marshal(it)
		if err != nil {
			return Result{}, fmt.Errorf("echo: marshal history: %w", err)
		}
		hist = append(hist, data)
	}

	now := time.Now()
	return Result{
		OutputText:     answer,
		UpdatedHistory: hist,
		Trace: &trace.Record{
			ExecutionLogs: []trace.ExecutionLog{{
				ID:        uuid.NewString(),
				Message:   fmt.Sprintf("echoed %d chars with %s", len(req.Text), req.Config.Model),
				Timestamp: now,
			}},
			Metrics: trace.Metrics{
				TotalTokens:    int64(len(req.Text)+len(answer)) / 4,
				TotalLatencyMs: now.Sub(start).Milliseconds(),
				RequestTime:    start,
			},
		},
	}, nil
}
