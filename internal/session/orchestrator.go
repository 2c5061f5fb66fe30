// Package session implements the orchestrator behind one workspace session:
// it serializes requests against the execution engine, threads conversation
// history between turns, attaches traces to answers, keeps the console log,
// and drives the run-status machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/history"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/runstate"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

// DefaultPreviewLength is how many characters of a request are echoed in the
// "Running request" console entry.
const DefaultPreviewLength = 50

// ErrMissingCredential is reported when no API key is configured.
var ErrMissingCredential = errors.New("session: API key is missing")

// ExecutionError wraps any failure returned by the engine.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return "execution: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// CheckConfig reports configuration problems that prevent any run.
func CheckConfig(cfg engine.Config) error {
	if strings.TrimSpace(cfg.Credential) == "" {
		return ErrMissingCredential
	}
	return nil
}

// Options configures an Orchestrator.
type Options struct {
	Engine engine.Engine
	Config engine.Config

	// RecoveryDelay overrides runstate.DefaultRecoveryDelay when > 0.
	RecoveryDelay time.Duration
	// PreviewLength overrides DefaultPreviewLength when > 0.
	PreviewLength int

	// Events, if set, receives every event with a non-blocking send.
	// Consumers treat events as refresh signals and read snapshots.
	Events chan<- Event
	// Observers receive every event synchronously and in order.
	Observers []Observer
	// RunHooks are called once per finished run.
	RunHooks []RunHook

	// Now and AfterFunc replace the clock and recovery scheduler in tests.
	Now       func() time.Time
	AfterFunc runstate.AfterFunc
}

// Orchestrator owns all session state. Every mutation happens under mu; the
// engine call is the only work done outside it.
type Orchestrator struct {
	engine    engine.Engine
	previewN  int
	events    chan<- Event
	observers []Observer
	hooks     []RunHook
	now       func() time.Time

	mu         sync.Mutex
	cfg        engine.Config
	transcript []Turn
	lastRunAt  time.Time
	// reported is the status named by the last emitted status event.
	reported runstate.Status

	console *console.Log
	history *history.Store
	status  *runstate.Machine

	// emitMu is taken before mu is released so events leave in the order
	// their state changes were made.
	emitMu sync.Mutex

	wg sync.WaitGroup
}

// New creates an Orchestrator in StatusIdle with an empty transcript.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		engine:    opts.Engine,
		previewN:  opts.PreviewLength,
		events:    opts.Events,
		observers: opts.Observers,
		hooks:     opts.RunHooks,
		now:       opts.Now,
		cfg:       opts.Config,
		console:   console.New(),
		history:   history.NewStore(),
	}
	if o.previewN <= 0 {
		o.previewN = DefaultPreviewLength
	}
	if o.now == nil {
		o.now = time.Now
	}

	smOpts := []runstate.Option{runstate.WithOnChange(o.onStatusChange)}
	if opts.RecoveryDelay > 0 {
		smOpts = append(smOpts, runstate.WithRecoveryDelay(opts.RecoveryDelay))
	}
	if opts.AfterFunc != nil {
		smOpts = append(smOpts, runstate.WithAfterFunc(opts.AfterFunc))
	}
	o.status = runstate.New(smOpts...)
	return o
}

// Submit hands a request to the engine. It never blocks on the engine; the
// outcome shows up in the transcript, console and status.
//
// Empty requests are ignored. Without a credential an error is logged and
// nothing else changes. While a run is in flight the request is rejected
// with a warning. A request submitted in StatusError supersedes the pending
// auto-recovery.
func (o *Orchestrator) Submit(ctx context.Context, request string) {
	if strings.TrimSpace(request) == "" {
		return
	}

	o.mu.Lock()
	var evs []Event

	cfg := o.cfg
	if err := CheckConfig(cfg); err != nil {
		evs = o.logLocked(evs, console.SeverityError, "API key is missing")
		o.unlockAndEmit(evs)
		return
	}

	if o.status.Status() == runstate.StatusRunning {
		evs = o.logLocked(evs, console.SeverityWarn, "A request is already running; ignored new request")
		o.unlockAndEmit(evs)
		return
	}

	// Only Submit enters running and it holds mu, so Begin cannot fail here;
	// the status it left may still be error or idle if recovery just fired.
	from, err := o.status.Begin()
	if err != nil {
		evs = o.logLocked(evs, console.SeverityWarn, "A request is already running; ignored new request")
		o.unlockAndEmit(evs)
		return
	}
	user := Turn{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   request,
		CreatedAt: o.now(),
	}
	evs = o.appendTurnLocked(evs, user)
	if from == runstate.StatusIdle && o.reported == runstate.StatusError {
		// Recovery fired but its event has not been emitted yet.
		evs = append(evs, o.statusEvent(runstate.StatusError, runstate.StatusIdle))
	}
	evs = append(evs, o.statusEvent(from, runstate.StatusRunning))
	evs = o.logLocked(evs, console.SeverityInfo, "Running request: "+preview(request, o.previewN))

	hist := o.history.Get()
	started := o.now()
	o.wg.Add(1)
	o.unlockAndEmit(evs)

	go o.run(ctx, request, cfg, hist, started)
}

// run performs one engine call and folds its outcome into session state.
func (o *Orchestrator) run(ctx context.Context, request string, cfg engine.Config, hist []history.Item, started time.Time) {
	defer o.wg.Done()

	res, err := o.invoke(ctx, engine.Request{Text: request, Config: cfg, History: hist})
	finished := o.now()

	if err == nil {
		if res.Trace == nil {
			res.Trace = &trace.Record{Metrics: trace.Metrics{
				TotalLatencyMs: finished.Sub(started).Milliseconds(),
				RequestTime:    started,
			}}
		}
		if vErr := res.Trace.Validate(); vErr != nil {
			err = fmt.Errorf("engine returned an invalid trace: %w", vErr)
		}
	}

	report := RunReport{
		Request:    request,
		Model:      cfg.Model,
		StartedAt:  started,
		FinishedAt: finished,
	}

	o.mu.Lock()
	var evs []Event
	if err != nil {
		execErr := &ExecutionError{Err: err}
		report.Err = execErr
		msg := errorMessage(err)

		evs = o.logLocked(evs, console.SeverityError, "Error: "+msg)
		turn := Turn{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Content:   fmt.Sprintf("Error executing request: %s\n\nPlease check your API key and try again.", msg),
			CreatedAt: finished,
		}
		evs = o.appendTurnLocked(evs, turn)
		report.TurnID = turn.ID
		if fErr := o.status.Fail(); fErr == nil {
			evs = append(evs, o.statusEvent(runstate.StatusRunning, runstate.StatusError))
		}
	} else {
		o.history.Replace(res.UpdatedHistory)
		tr := res.Trace.Clone()
		turn := Turn{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Content:   res.OutputText,
			HasPatch:  DetectPatch(res.OutputText),
			CreatedAt: finished,
			Trace:     tr,
		}
		evs = o.appendTurnLocked(evs, turn)
		report.TurnID = turn.ID
		report.TotalTokens = tr.Metrics.TotalTokens
		report.ToolCalls = len(tr.ToolCalls)
		report.SearchQueries = len(tr.SearchQueries)
		if sErr := o.status.Succeed(); sErr == nil {
			evs = append(evs, o.statusEvent(runstate.StatusRunning, runstate.StatusIdle))
		}
		o.lastRunAt = finished
		evs = o.logLocked(evs, console.SeverityInfo, "Request completed successfully")
	}
	o.unlockAndEmit(evs)

	for _, h := range o.hooks {
		h(report)
	}
}

// invoke calls the engine, converting a panic into an error so nothing
// escapes the orchestrator.
func (o *Orchestrator) invoke(ctx context.Context, req engine.Request) (res engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	if o.engine == nil {
		return engine.Result{}, errors.New("no execution engine configured")
	}
	return o.engine.Run(ctx, req)
}

// ApplyPatch records that the patch in the given assistant turn was applied.
// Applying is advisory and only logged.
func (o *Orchestrator) ApplyPatch(turnID string) {
	o.mu.Lock()
	var evs []Event
	found := false
	for _, t := range o.transcript {
		if t.ID == turnID && t.Role == RoleAssistant && t.HasPatch {
			found = true
			break
		}
	}
	if !found {
		evs = o.logLocked(evs, console.SeverityWarn, fmt.Sprintf("No patch found in message %s", turnID))
	} else {
		evs = o.logLocked(evs, console.SeverityInfo, fmt.Sprintf("Patch applied from message %s", turnID))
		evs = o.logLocked(evs, console.SeverityInfo, "Preview updated successfully")
	}
	o.unlockAndEmit(evs)
}

// ClearConsole empties the console log.
func (o *Orchestrator) ClearConsole() {
	o.mu.Lock()
	o.console.Clear()
	evs := []Event{{Kind: EventConsoleCleared, Timestamp: o.now()}}
	o.unlockAndEmit(evs)
}

// SetConfig replaces the agent configuration used by subsequent runs.
func (o *Orchestrator) SetConfig(cfg engine.Config) {
	o.mu.Lock()
	o.cfg = cfg
	o.mu.Unlock()
}

// Config returns the current agent configuration.
func (o *Orchestrator) Config() engine.Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// Transcript returns a copy of every turn in submission order.
func (o *Orchestrator) Transcript() []Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Turn, len(o.transcript))
	for i, t := range o.transcript {
		out[i] = t.clone()
	}
	return out
}

// Turn looks up a transcript entry by id.
func (o *Orchestrator) Turn(id string) (Turn, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range o.transcript {
		if t.ID == id {
			return t.clone(), true
		}
	}
	return Turn{}, false
}

// Console returns the session console log. Use ClearConsole to clear it so
// observers are told.
func (o *Orchestrator) Console() *console.Log {
	return o.console
}

// History returns a copy of the conversation history sent to the next run.
func (o *Orchestrator) History() []history.Item {
	return o.history.Get()
}

// Status returns the current run status.
func (o *Orchestrator) Status() runstate.Status {
	return o.status.Status()
}

// LastRunAt returns when the last successful run completed. Zero if none.
func (o *Orchestrator) LastRunAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastRunAt
}

// Wait blocks until the in-flight run, if any, has settled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close waits for the in-flight run and cancels any pending auto-recovery.
func (o *Orchestrator) Close() {
	o.wg.Wait()
	o.status.Stop()
}

// onStatusChange is the run-status observer. Transitions made by Submit and
// run are emitted by those paths while mu is held; only the timer-driven
// recovery, which runs on the timer goroutine, is emitted here. A Submit
// that got mu first has already emitted it.
func (o *Orchestrator) onStatusChange(from, to runstate.Status) {
	if from != runstate.StatusError || to != runstate.StatusIdle {
		return
	}
	o.mu.Lock()
	if o.reported != runstate.StatusError {
		o.mu.Unlock()
		return
	}
	o.unlockAndEmit([]Event{o.statusEvent(from, to)})
}

func (o *Orchestrator) appendTurnLocked(evs []Event, t Turn) []Event {
	o.transcript = append(o.transcript, t)
	ev := t.clone()
	return append(evs, Event{Kind: EventTurn, Timestamp: t.CreatedAt, Turn: &ev})
}

func (o *Orchestrator) logLocked(evs []Event, sev console.Severity, msg string) []Event {
	e := o.console.Append(sev, msg)
	return append(evs, Event{Kind: EventLog, Timestamp: e.Timestamp, Log: &e})
}

// statusEvent must be called with mu held.
func (o *Orchestrator) statusEvent(from, to runstate.Status) Event {
	o.reported = to
	return Event{Kind: EventStatus, Timestamp: o.now(), From: from, To: to}
}

// unlockAndEmit releases mu and delivers evs. emitMu is acquired first so a
// later state change cannot overtake these events.
func (o *Orchestrator) unlockAndEmit(evs []Event) {
	o.emitMu.Lock()
	o.mu.Unlock()
	defer o.emitMu.Unlock()
	for _, ev := range evs {
		o.emit(ev)
	}
}

func (o *Orchestrator) emit(ev Event) {
	for _, obs := range o.observers {
		obs.Observe(ev)
	}
	if o.events == nil {
		return
	}
	select {
	case o.events <- ev:
	default:
	}
}

func errorMessage(err error) string {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		err = execErr.Err
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error occurred"
}
