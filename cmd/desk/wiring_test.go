package main

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/config"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/engine/responses"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/store"
)

// writeProject scaffolds desk.toml in a temp dir and returns its path.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path, err := config.InitFile(dir)
	if err != nil {
		t.Fatalf("InitFile: %v", err)
	}
	return path
}

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func TestNewEngine(t *testing.T) {
	t.Setenv(config.DefaultAPIKeyEnv, "")

	tests := []struct {
		name     string
		engine   string
		wantEcho bool
		wantCred string
		wantErr  bool
	}{
		{name: "default is responses", engine: "", wantCred: ""},
		{name: "responses", engine: engineResponses, wantCred: ""},
		{name: "echo fills offline credential", engine: engineEcho, wantEcho: true, wantCred: offlineCredential},
		{name: "unknown", engine: "gpt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			eng, ec, err := newEngine(tt.engine, &cfg)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "unknown engine") {
					t.Fatalf("expected unknown engine error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			_, isEcho := eng.(engine.Echo)
			_, isResponses := eng.(*responses.Client)
			if isEcho != tt.wantEcho || isResponses == tt.wantEcho {
				t.Errorf("engine type: got %T", eng)
			}
			if ec.Credential != tt.wantCred {
				t.Errorf("credential: got %q, want %q", ec.Credential, tt.wantCred)
			}
			if ec.Model != cfg.Agent.Model {
				t.Errorf("model: got %q", ec.Model)
			}
		})
	}
}

func TestNewEngineEchoKeepsConfiguredKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.Agent.APIKey = "sk-real"
	_, ec, err := newEngine(engineEcho, &cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ec.Credential != "sk-real" {
		t.Errorf("credential: got %q", ec.Credential)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeProject(t)
	cfg, dir, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if dir != filepath.Dir(path) {
		t.Errorf("dir: got %q, want %q", dir, filepath.Dir(path))
	}
	if want := filepath.Join(dir, ".desk", "logs"); cfg.Session.LogDir != want {
		t.Errorf("log dir: got %q, want %q", cfg.Session.LogDir, want)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte("[agent]\nmodel = \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := loadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "agent.model") {
		t.Errorf("expected validation error naming agent.model, got %v", err)
	}
}

func TestOpenEnvWritesSessionLog(t *testing.T) {
	path := writeProject(t)
	cfg, dir, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	env, err := openEnv(cfg, dir, envOptions{engine: engineEcho})
	if err != nil {
		t.Fatalf("openEnv: %v", err)
	}
	env.orch.ClearConsole()
	if err := env.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs, err := store.ReadSession(env.log.Path())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Kind != session.EventConsoleCleared {
		t.Errorf("records: got %+v", recs)
	}
}

func TestOpenEnvUnknownEngine(t *testing.T) {
	cfg := config.Defaults()
	cfg.Session.LogDir = t.TempDir()
	if _, err := openEnv(&cfg, "", envOptions{engine: "nope"}); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestExecuteAskEcho(t *testing.T) {
	path := writeProject(t)
	cmd, stdout, stderr := testCommand()

	err := executeAsk(cmd, globalFlags{configPath: path, engine: engineEcho}, "list webhooks", true, true)
	if err != nil {
		t.Fatalf("executeAsk: %v", err)
	}
	assertContains(t, stdout.String(), []string{"Echo (turn 1): list webhooks", "Trace"}, nil)
	assertContains(t, stderr.String(), []string{"Running request: list webhooks", "Request completed successfully", "2 turns, 1 runs, 0 failed"}, nil)

	logDir := filepath.Join(filepath.Dir(path), ".desk", "logs")
	list, err := formatSessionList(logDir)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, list, []string{"Sessions", "2 turns", "1 runs", "0 failed"}, []string{"No sessions"})
}

func TestExecuteAskMissingCredential(t *testing.T) {
	t.Setenv(config.DefaultAPIKeyEnv, "")
	path := writeProject(t)
	cmd, stdout, stderr := testCommand()

	err := executeAsk(cmd, globalFlags{configPath: path, engine: engineResponses}, "hello", true, false)
	if err == nil || !strings.Contains(err.Error(), "API key is missing") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", stdout.String())
	}
	assertContains(t, stderr.String(), []string{"error API key is missing"}, nil)
}

func TestExecuteAskServesMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	path := writeProject(t)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte(`addr = ""`), []byte(fmt.Sprintf("addr = %q", addr)), 1)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	// The echo engine holds the run open long enough to scrape it.
	scraped := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(scraped)
		for {
			select {
			case <-done:
				return
			default:
			}
			resp, err := http.Get("http://" + addr + "/metrics")
			if err == nil {
				b, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				scraped <- string(b)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	cmd, _, _ := testCommand()
	err = executeAsk(cmd, globalFlags{configPath: path, engine: engineEcho}, "count me", true, false)
	close(done)
	if err != nil {
		t.Fatalf("executeAsk: %v", err)
	}
	body, ok := <-scraped
	if !ok {
		t.Fatal("/metrics was never reachable while ask ran")
	}
	if !strings.Contains(body, "desk_") {
		t.Errorf("metrics body: %q", body)
	}
}
