// Package responses implements engine.Engine against an OpenAI-compatible
// /responses endpoint with hosted web search and code interpreter tools.
package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/history"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// APIError is a non-2xx reply, or an error object inside a 2xx reply.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Type != "" {
		msg = e.Type + ": " + msg
	}
	return fmt.Sprintf("responses: status %d: %s", e.StatusCode, msg)
}

// Client calls the Responses API. The zero value is not usable; call New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another OpenAI-compatible server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestBody struct {
	Model     string            `json:"model"`
	Input     []json.RawMessage `json:"input"`
	Tools     []tool            `json:"tools,omitempty"`
	Reasoning *reasoning        `json:"reasoning,omitempty"`
	Include   []string          `json:"include,omitempty"`
	Store     bool              `json:"store"`
}

// encryptedReasoning asks for reasoning items that can be replayed without
// server-side storage.
const encryptedReasoning = "reasoning.encrypted_content"

type reasoning struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary,omitempty"`
}

type tool struct {
	Type              string         `json:"type"`
	SearchContextSize string         `json:"search_context_size,omitempty"`
	Filters           *searchFilters `json:"filters,omitempty"`
	Container         *container     `json:"container,omitempty"`
}

type searchFilters struct {
	AllowedDomains []string `json:"allowed_domains"`
}

type container struct {
	Type string `json:"type"`
}

type userItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseBody struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Output []json.RawMessage `json:"output"`
	Usage  struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *errorPayload `json:"error"`
}

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error *errorPayload `json:"error"`
}

// outputItem holds the union of fields read from the item types we trace.
type outputItem struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Output    string `json:"output"`
	Code      string `json:"code"`
	Status    string `json:"status"`
	Content   []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Summary []struct {
		Text string `json:"text"`
	} `json:"summary"`
	Outputs []struct {
		Type string `json:"type"`
		Logs string `json:"logs"`
	} `json:"outputs"`
	Action *struct {
		Type    string            `json:"type"`
		Query   string            `json:"query"`
		Sources []json.RawMessage `json:"sources"`
	} `json:"action"`
}

// Run sends the request with the prior history and returns the answer, a
// trace of the hosted tool activity, and the history extended with the user
// item and every output item.
func (c *Client) Run(ctx context.Context, req engine.Request) (engine.Result, error) {
	if strings.TrimSpace(req.Config.Credential) == "" {
		return engine.Result{}, errors.New("responses: missing credential")
	}

	user, err := json.Marshal(userItem{Role: "user", Content: req.Text})
	if err != nil {
		return engine.Result{}, fmt.Errorf("responses: marshal input: %w", err)
	}
	keepReasoning := engine.SupportsReasoning(req.Config.Model)
	input := make([]json.RawMessage, 0, len(req.History)+1)
	for _, it := range req.History {
		if !keepReasoning && itemType(it) == "reasoning" {
			continue
		}
		input = append(input, json.RawMessage(it))
	}
	input = append(input, user)

	body, err := json.Marshal(buildRequest(req.Config, input))
	if err != nil {
		return engine.Result{}, fmt.Errorf("responses: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return engine.Result{}, fmt.Errorf("responses: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Config.Credential)

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return engine.Result{}, fmt.Errorf("responses: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return engine.Result{}, fmt.Errorf("responses: read response: %w", err)
	}
	latency := c.now().Sub(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return engine.Result{}, apiError(resp.StatusCode, raw)
	}

	var out responseBody
	if err := json.Unmarshal(raw, &out); err != nil {
		return engine.Result{}, fmt.Errorf("responses: decode response: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return engine.Result{}, &APIError{StatusCode: resp.StatusCode, Type: out.Error.Type, Message: out.Error.Message}
	}

	text, rec, err := parseOutput(out.Output, c.now())
	if err != nil {
		return engine.Result{}, err
	}
	rec.Metrics = trace.Metrics{
		TotalTokens:    out.Usage.TotalTokens,
		TotalLatencyMs: latency.Milliseconds(),
		RequestTime:    start,
	}

	updated := make([]history.Item, 0, len(input)+len(out.Output))
	for _, it := range input {
		updated = append(updated, history.Item(it))
	}
	for _, it := range out.Output {
		updated = append(updated, history.Item(it))
	}

	return engine.Result{OutputText: text, UpdatedHistory: updated, Trace: rec}, nil
}

func buildRequest(cfg engine.Config, input []json.RawMessage) requestBody {
	rb := requestBody{
		Model: cfg.Model,
		Input: input,
		Store: cfg.StoreConversation,
	}
	if cfg.ReasoningEffort != "" && engine.SupportsReasoning(cfg.Model) {
		rb.Reasoning = &reasoning{Effort: string(cfg.ReasoningEffort), Summary: "auto"}
		if !cfg.StoreConversation {
			rb.Include = []string{encryptedReasoning}
		}
	}
	if cfg.WebSearch {
		t := tool{Type: "web_search", SearchContextSize: string(cfg.SearchContextSize)}
		if len(cfg.AllowedDomains) > 0 {
			t.Filters = &searchFilters{AllowedDomains: cfg.AllowedDomains}
		}
		rb.Tools = append(rb.Tools, t)
	}
	if cfg.CodeInterpreter {
		rb.Tools = append(rb.Tools, tool{Type: "code_interpreter", Container: &container{Type: "auto"}})
	}
	return rb
}

// parseOutput turns the output items into the answer text and a trace.
// Items of unknown types are kept in history but not traced.
func parseOutput(items []json.RawMessage, now time.Time) (string, *trace.Record, error) {
	var text strings.Builder
	rec := &trace.Record{}

	for i, raw := range items {
		var it outputItem
		if err := json.Unmarshal(raw, &it); err != nil {
			return "", nil, fmt.Errorf("responses: decode output[%d]: %w", i, err)
		}
		switch it.Type {
		case "message":
			for _, part := range it.Content {
				if part.Type == "output_text" || part.Type == "text" {
					text.WriteString(part.Text)
				}
			}
		case "function_call":
			rec.ToolCalls = append(rec.ToolCalls, trace.ToolCall{
				ID:     itemID(it.CallID, it.ID),
				Name:   it.Name,
				Input:  it.Arguments,
				Output: it.Output,
			})
		case "code_interpreter_call":
			var logs []string
			for _, o := range it.Outputs {
				if o.Logs != "" {
					logs = append(logs, o.Logs)
				}
			}
			rec.ToolCalls = append(rec.ToolCalls, trace.ToolCall{
				ID:     itemID(it.ID, ""),
				Name:   "code_interpreter",
				Input:  it.Code,
				Output: strings.Join(logs, "\n"),
			})
		case "web_search_call":
			q := trace.SearchQuery{ID: itemID(it.ID, "")}
			if it.Action != nil {
				q.Query = it.Action.Query
				q.ResultCount = len(it.Action.Sources)
			}
			rec.SearchQueries = append(rec.SearchQueries, q)
		case "reasoning":
			for _, s := range it.Summary {
				if strings.TrimSpace(s.Text) == "" {
					continue
				}
				rec.ExecutionLogs = append(rec.ExecutionLogs, trace.ExecutionLog{
					ID:        itemID(it.ID, ""),
					Message:   s.Text,
					Timestamp: now,
				})
			}
		}
	}
	return text.String(), rec, nil
}

// itemType returns the "type" field of a history item, or "" for items
// without one such as plain role/content messages.
func itemType(it history.Item) string {
	var v struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(it, &v); err != nil {
		return ""
	}
	return v.Type
}

// itemID returns the first non-empty id, or a fresh one so traces always
// validate.
func itemID(ids ...string) string {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return uuid.NewString()
}

func apiError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return &APIError{StatusCode: status, Type: env.Error.Type, Message: env.Error.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
