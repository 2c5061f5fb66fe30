package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/config"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine/responses"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/metrics"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/notify"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/store"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/tui"
)

const (
	engineResponses = "responses"
	engineEcho      = "echo"
)

// echoDelay makes the offline engine slow enough to watch the running state.
const echoDelay = 600 * time.Millisecond

// offlineCredential stands in for an API key when the echo engine is used.
const offlineCredential = "offline"

// loadConfig reads and validates desk.toml. dir is the directory the
// workspace reports as its own: the config file's directory when a path was
// given, the working directory otherwise.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid %s:\n%w", config.FileName, err)
	}

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, "", fmt.Errorf("resolve %s: %w", path, err)
		}
		return cfg, filepath.Dir(abs), nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}
	return cfg, dir, nil
}

// newEngine selects the execution engine by name and returns it with the
// engine config the session starts from.
func newEngine(name string, cfg *config.Config) (engine.Engine, engine.Config, error) {
	ec := cfg.EngineConfig()
	switch name {
	case "", engineResponses:
		return responses.New(responses.WithBaseURL(cfg.Agent.BaseURL)), ec, nil
	case engineEcho:
		if ec.Credential == "" {
			ec.Credential = offlineCredential
		}
		return engine.Echo{Delay: echoDelay}, ec, nil
	default:
		return nil, engine.Config{}, fmt.Errorf("unknown engine %q (want %s or %s)", name, engineResponses, engineEcho)
	}
}

// deskEnv is everything one desk invocation opens around the orchestrator.
type deskEnv struct {
	cfg      *config.Config
	dir      string
	orch     *session.Orchestrator
	log      *store.JSONL
	registry *prometheus.Registry
}

// envOptions are the per-command parts of the wiring.
type envOptions struct {
	engine    string
	events    chan<- session.Event
	observers []session.Observer
}

// openEnv wires engine, session log, metrics and notifications into a new
// orchestrator. Old session logs beyond the retention limit are removed
// before the new one is created.
func openEnv(cfg *config.Config, dir string, opts envOptions) (*deskEnv, error) {
	eng, ec, err := newEngine(opts.engine, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.EnforceRetention(cfg.Session.LogDir, cfg.Session.LogRetention); err != nil {
		return nil, err
	}
	sessionLog, err := store.NewJSONL(cfg.Session.LogDir)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		_ = sessionLog.Close()
		return nil, err
	}

	hooks := []session.RunHook{collector.Hook}
	if cfg.Notifications.URL != "" {
		n := notify.New(cfg.Notifications.URL, cfg.Project.Name, cfg.Notifications.OnComplete, cfg.Notifications.OnError)
		hooks = append(hooks, n.Hook)
	}

	observers := append([]session.Observer{sessionLog}, opts.observers...)
	orch := session.New(session.Options{
		Engine:        eng,
		Config:        ec,
		RecoveryDelay: cfg.RecoveryDelay(),
		PreviewLength: cfg.Session.PreviewLength,
		Events:        opts.events,
		Observers:     observers,
		RunHooks:      hooks,
	})

	return &deskEnv{
		cfg:      cfg,
		dir:      dir,
		orch:     orch,
		log:      sessionLog,
		registry: reg,
	}, nil
}

// Close waits for the in-flight run and closes the session log.
func (e *deskEnv) Close() error {
	e.orch.Close()
	return e.log.Close()
}

// serveMetrics exposes /metrics until ctx is done when [metrics] addr is
// set. Failures are reported on stderr and never stop the session.
func (e *deskEnv) serveMetrics(ctx context.Context) {
	addr := e.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, addr, e.registry, nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()
}

// executeWorkspace runs the interactive TUI until the user quits or a
// signal arrives.
func executeWorkspace(flags globalFlags) error {
	ctx, cancel := signalContext()
	defer cancel()
	registerQuitHandler()

	cfg, dir, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}

	events := make(chan session.Event, 128)
	env, err := openEnv(cfg, dir, envOptions{engine: flags.engine, events: events})
	if err != nil {
		return err
	}
	defer env.Close()
	env.serveMetrics(ctx)

	model := tui.New(env.orch, events, tui.Options{
		AccentColor: cfg.TUI.AccentColor,
		ProjectName: cfg.Project.Name,
		WorkDir:     dir,
		Context:     ctx,
		Presets:     cfg.TUI.Presets,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	err = finishTUI(program)
	// Abandon an in-flight run before env.Close waits for it.
	cancel()
	return err
}

// finishTUI runs the bubbletea program. Shutdown by signal is not an error.
func finishTUI(program *tea.Program) error {
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
