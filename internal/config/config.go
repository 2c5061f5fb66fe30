// Package config parses desk.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine"
)

// FileName is the project configuration file looked up by Load.
const FileName = "desk.toml"

// DefaultAccentColor is the default TUI accent color (indigo).
const DefaultAccentColor = "#7D56F4"

// DefaultAPIKeyEnv is the environment variable consulted when no api_key is
// set in the file.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// hexColorRe matches a 6-digit hex color string like "#7D56F4".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config is the top-level desk.toml configuration.
type Config struct {
	Project       ProjectConfig       `toml:"project"`
	Agent         AgentConfig         `toml:"agent"`
	Session       SessionConfig       `toml:"session"`
	TUI           TUIConfig           `toml:"tui"`
	Notifications NotificationsConfig `toml:"notifications"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

// ProjectConfig identifies the project and the tools its agent may use.
type ProjectConfig struct {
	Name            string   `toml:"name"`
	AllowedDomains  []string `toml:"allowed_domains"`
	WebSearch       bool     `toml:"web_search"`
	CodeInterpreter bool     `toml:"code_interpreter"`
}

// AgentConfig controls the execution engine.
type AgentConfig struct {
	Model             string `toml:"model"`
	SearchContextSize string `toml:"search_context_size"`
	ReasoningEffort   string `toml:"reasoning_effort"`
	APIKey            string `toml:"api_key"`
	APIKeyEnv         string `toml:"api_key_env"`
	BaseURL           string `toml:"base_url"`
	StoreConversation bool   `toml:"store_conversation"`
}

// SessionConfig controls the orchestrator and its session log.
type SessionConfig struct {
	RecoveryDelayMs int    `toml:"recovery_delay_ms"`
	PreviewLength   int    `toml:"preview_length"`
	LogDir          string `toml:"log_dir"`
	LogRetention    int    `toml:"log_retention"` // number of session logs to keep; 0 = unlimited
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor string `toml:"accent_color"`
	// Presets are canned requests ctrl+r cycles into the editor.
	Presets []string `toml:"presets"`
}

// NotificationsConfig controls webhook/ntfy.sh notifications.
type NotificationsConfig struct {
	URL        string `toml:"url"`
	OnComplete bool   `toml:"on_complete"`
	OnError    bool   `toml:"on_error"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"` // empty = disabled
}

// Validate checks the configuration for issues that would cause confusing
// runtime failures. It returns all found issues joined together. A missing
// credential is not an error here; the session reports it on submit.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Agent.Model) == "" {
		errs = append(errs, fmt.Errorf("agent.model must not be empty"))
	}
	if !engine.SearchContextSize(c.Agent.SearchContextSize).Valid() {
		errs = append(errs, fmt.Errorf("agent.search_context_size must be one of small, medium, large"))
	}
	if !engine.ReasoningEffort(c.Agent.ReasoningEffort).Valid() {
		errs = append(errs, fmt.Errorf("agent.reasoning_effort must be one of low, medium, high"))
	}
	if c.Agent.BaseURL != "" && !isHTTPURL(c.Agent.BaseURL) {
		errs = append(errs, fmt.Errorf("agent.base_url must be a valid http or https URL"))
	}
	for i, d := range c.Project.AllowedDomains {
		if strings.TrimSpace(d) == "" || strings.Contains(d, "/") {
			errs = append(errs, fmt.Errorf("project.allowed_domains[%d] must be a bare domain name", i))
		}
	}

	if c.Session.RecoveryDelayMs < 0 {
		errs = append(errs, fmt.Errorf("session.recovery_delay_ms must be >= 0"))
	}
	if c.Session.PreviewLength < 0 {
		errs = append(errs, fmt.Errorf("session.preview_length must be >= 0"))
	}
	if c.Session.LogRetention < 0 {
		errs = append(errs, fmt.Errorf("session.log_retention must be >= 0 (0 = unlimited)"))
	}

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#7D56F4\")"))
	}

	for i, p := range c.TUI.Presets {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("tui.presets[%d] must not be blank", i))
		}
	}

	if c.Notifications.URL != "" && !isHTTPURL(c.Notifications.URL) {
		errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
	}

	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.addr must be host:port"))
		}
	}

	return errors.Join(errs...)
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Project: ProjectConfig{
			WebSearch: true,
		},
		Agent: AgentConfig{
			Model:             "gpt-4o",
			SearchContextSize: string(engine.SearchContextMedium),
			ReasoningEffort:   string(engine.ReasoningMedium),
			APIKeyEnv:         DefaultAPIKeyEnv,
		},
		Session: SessionConfig{
			RecoveryDelayMs: 3000,
			PreviewLength:   50,
			LogDir:          filepath.Join(".desk", "logs"),
			LogRetention:    20,
		},
		TUI: TUIConfig{
			AccentColor: DefaultAccentColor,
		},
		Notifications: NotificationsConfig{
			OnComplete: false,
			OnError:    true,
		},
	}
}

// Credential returns agent.api_key, falling back to the environment variable
// named by agent.api_key_env.
func (c *Config) Credential() string {
	if k := strings.TrimSpace(c.Agent.APIKey); k != "" {
		return k
	}
	env := c.Agent.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// EngineConfig maps the file onto the effective per-run engine config.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		AllowedDomains:    append([]string(nil), c.Project.AllowedDomains...),
		Model:             c.Agent.Model,
		SearchContextSize: engine.SearchContextSize(c.Agent.SearchContextSize),
		ReasoningEffort:   engine.ReasoningEffort(c.Agent.ReasoningEffort),
		Credential:        c.Credential(),
		WebSearch:         c.Project.WebSearch,
		CodeInterpreter:   c.Project.CodeInterpreter,
		StoreConversation: c.Agent.StoreConversation,
	}
}

// RecoveryDelay returns session.recovery_delay_ms as a duration.
func (c *Config) RecoveryDelay() time.Duration {
	return time.Duration(c.Session.RecoveryDelayMs) * time.Millisecond
}

// Load reads desk.toml from the given path. If path is empty, it walks up
// from the current working directory looking for desk.toml. Returns an error
// if the file contains unknown keys (likely typos). A relative
// session.log_dir is resolved against the file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := findConfig()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, joinKeys(keys))
	}

	dir := filepath.Dir(path)
	if cfg.Project.Name == "" {
		cfg.Project.Name = DetectProjectName(dir)
	}
	if cfg.Session.LogDir != "" && !filepath.IsAbs(cfg.Session.LogDir) {
		cfg.Session.LogDir = filepath.Join(dir, cfg.Session.LogDir)
	}

	return &cfg, nil
}

// joinKeys formats a slice of key names for display.
func joinKeys(keys []string) string {
	return strings.Join(keys, ", ")
}

// findConfig walks up from the current directory looking for desk.toml.
func findConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config: %s not found (searched up from %s)", FileName, dir)
		}
		dir = parent
	}
}

// InitFile writes a default desk.toml template to the given directory.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}

	content := `# desk.toml: AgentDesk project configuration
# Place this file in the root of your project.

[project]
name = ""
allowed_domains = []      # restrict web search to these domains (empty = any)
web_search = true
code_interpreter = false

[agent]
model = "gpt-4o"
search_context_size = "medium"   # small | medium | large
reasoning_effort = "medium"      # low | medium | high
api_key = ""                     # prefer api_key_env
api_key_env = "OPENAI_API_KEY"
base_url = ""                    # empty = https://api.openai.com/v1
store_conversation = false

[session]
recovery_delay_ms = 3000  # time spent in the error state before returning to idle
preview_length = 50       # characters of a request echoed to the console
log_dir = ".desk/logs"
log_retention = 20        # number of session logs to keep; 0 = unlimited

[tui]
accent_color = "#7D56F4"  # hex color for header/accent elements
presets = [               # requests ctrl+r cycles into the editor
  "Perform a comprehensive SEO audit of the storefront",
  "Create a patch to customize the theme header",
]

[notifications]
url = ""            # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_complete = false # notify when a request completes
on_error = true     # notify when a request fails

[metrics]
addr = ""           # e.g. "127.0.0.1:9464" to serve /metrics (empty = disabled)
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}
