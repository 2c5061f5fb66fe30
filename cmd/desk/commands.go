package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/config"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/console"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/store"
	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/trace"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Send one request without the TUI and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")
			showTrace, _ := cmd.Flags().GetBool("trace")
			return executeAsk(cmd, flagsFrom(cmd), strings.Join(args, " "), raw, showTrace)
		},
	}
	cmd.Flags().Bool("raw", false, "print the answer as plain text instead of rendered markdown")
	cmd.Flags().Bool("trace", false, "print a summary of the execution trace after the answer")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold desk.toml and the session log directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			created, err := config.ScaffoldProject(dir)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatCreated(created))
			return nil
		},
	}
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flagsFrom(cmd).configPath)
			if err != nil {
				return err
			}
			out, err := formatSessionList(cfg.Session.LogDir)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.AddCommand(sessionsShowCmd())
	return cmd
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the transcript of a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flagsFrom(cmd).configPath)
			if err != nil {
				return err
			}
			id := strings.TrimSuffix(args[0], ".jsonl")
			recs, err := store.ReadSession(filepath.Join(cfg.Session.LogDir, id+".jsonl"))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTranscript(id, recs))
			return nil
		},
	}
}

// executeAsk submits one request, streams console entries to stderr while
// it runs and prints the answer to stdout.
func executeAsk(cmd *cobra.Command, flags globalFlags, request string, raw, showTrace bool) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, dir, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	printLogs := session.ObserverFunc(func(ev session.Event) {
		if ev.Kind == session.EventLog && ev.Log != nil {
			fmt.Fprintln(stderr, formatLogLine(*ev.Log))
		}
	})

	env, err := openEnv(cfg, dir, envOptions{
		engine:    flags.engine,
		observers: []session.Observer{printLogs},
	})
	if err != nil {
		return err
	}
	defer env.Close()
	env.serveMetrics(ctx)

	env.orch.Submit(ctx, request)
	env.orch.Wait()
	fmt.Fprintln(stderr, formatLiveSummary(env.log))

	answer, ok := lastAnswer(env.orch.Transcript())
	if !ok {
		return askFailure(env.orch.Console().Entries())
	}

	stdout := cmd.OutOrStdout()
	text := answer.Content
	if !raw {
		width, tty := terminalWidth(stdout)
		if rendered, err := renderMarkdown(text, width, tty); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(stdout, strings.TrimRight(text, "\n"))
	if showTrace {
		fmt.Fprint(stdout, formatTraceSummary(answer.Trace))
	}
	return nil
}

// lastAnswer returns the assistant turn answering the most recent request.
func lastAnswer(turns []session.Turn) (session.Turn, bool) {
	if n := len(turns); n > 0 && turns[n-1].Role == session.RoleAssistant {
		return turns[n-1], true
	}
	return session.Turn{}, false
}

// askFailure turns the last error entry of the console into the command's
// error.
func askFailure(entries []console.Entry) error {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Severity == console.SeverityError {
			return errors.New(entries[i].Message)
		}
	}
	return errors.New("request produced no answer")
}

// terminalWidth reports the wrap width for w and whether it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 80, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80, true
	}
	width -= 4
	if width > 120 {
		width = 120
	}
	return width, true
}

// renderMarkdown renders text for a terminal, or without colors when the
// output is not one.
func renderMarkdown(text string, width int, tty bool) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if tty {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width), glamour.WithEmoji())
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(text)
}

// formatLogLine renders a console entry as a single plain-text line.
func formatLogLine(e console.Entry) string {
	return fmt.Sprintf("[%s] %-5s %s", e.Timestamp.Format("15:04:05"), e.Severity, e.Message)
}

func formatCreated(created []string) string {
	if len(created) == 0 {
		return "All files already exist, nothing to create.\n"
	}
	var b strings.Builder
	for _, path := range created {
		fmt.Fprintf(&b, "Created %s\n", path)
	}
	return b.String()
}

func formatTraceSummary(rec *trace.Record) string {
	if rec == nil {
		return "\nNo trace recorded.\n"
	}
	var b strings.Builder
	b.WriteString("\nTrace\n─────\n")
	fmt.Fprintf(&b, "  %-12s %d\n", "Tokens:", rec.Metrics.TotalTokens)
	fmt.Fprintf(&b, "  %-12s %dms\n", "Latency:", rec.Metrics.TotalLatencyMs)
	fmt.Fprintf(&b, "  %-12s %d\n", "Tool calls:", len(rec.ToolCalls))
	for _, c := range rec.ToolCalls {
		fmt.Fprintf(&b, "    - %s\n", c.Name)
	}
	fmt.Fprintf(&b, "  %-12s %d\n", "Searches:", len(rec.SearchQueries))
	for _, q := range rec.SearchQueries {
		fmt.Fprintf(&b, "    - %s (%d results)\n", q.Query, q.ResultCount)
	}
	return b.String()
}

// formatSessionLine renders one row of the sessions listing.
func formatSessionLine(s store.SessionSummary, modTime time.Time) string {
	return fmt.Sprintf("  %-24s  %s  %3d turns  %3d runs  %2d failed  %7d tokens\n",
		s.SessionID, modTime.Format(time.DateTime), s.Turns, s.Runs, s.Failures, s.TotalTokens)
}

// formatLiveSummary reports the totals of the session that just ran.
func formatLiveSummary(r store.Reader) string {
	s, err := r.SessionSummary()
	if err != nil {
		return fmt.Sprintf("session summary unavailable: %v", err)
	}
	return fmt.Sprintf("Session %s: %d turns, %d runs, %d failed, %d tokens",
		s.SessionID, s.Turns, s.Runs, s.Failures, s.TotalTokens)
}

func formatSessionList(dir string) (string, error) {
	infos, err := store.ListSessions(dir)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return fmt.Sprintf("No sessions recorded in %s\n", dir), nil
	}

	var b strings.Builder
	b.WriteString("Sessions\n────────\n")
	for _, info := range infos {
		recs, err := store.ReadSession(info.Path)
		if err != nil {
			fmt.Fprintf(&b, "  %-24s  unreadable: %v\n", info.ID, err)
			continue
		}
		b.WriteString(formatSessionLine(store.Summarize(info.ID, recs), info.ModTime))
	}
	return b.String(), nil
}

func formatTranscript(id string, recs []store.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", id)
	fmt.Fprintln(&b, strings.Repeat("─", len("Session ")+len(id)))

	n := 0
	for _, r := range recs {
		if r.Kind != session.EventTurn || r.Turn == nil {
			continue
		}
		n++
		t := r.Turn
		who := "You"
		if t.Role == session.RoleAssistant {
			who = "Agent"
		}
		fmt.Fprintf(&b, "\n[%s] %s", t.CreatedAt.Format("15:04:05"), who)
		if t.HasPatch {
			b.WriteString(" [patch]")
		}
		if t.Trace != nil {
			fmt.Fprintf(&b, " (%d tokens)", t.Trace.Metrics.TotalTokens)
		}
		fmt.Fprintf(&b, "\n%s\n", strings.TrimRight(t.Content, "\n"))
	}
	if n == 0 {
		b.WriteString("\nNo turns recorded.\n")
	}
	return b.String()
}
