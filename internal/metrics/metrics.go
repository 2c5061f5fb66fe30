// Package metrics exports Prometheus collectors for session runs and an
// optional HTTP endpoint to scrape them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

const namespace = "desk"

// Outcome label values for desk_runs_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector records one observation per finished run.
type Collector struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   prometheus.Counter
	tools    *prometheus.CounterVec
}

// New registers the run collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished engine runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of engine runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"outcome"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by successful runs.",
		}),
		tools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_activity_total",
			Help:      "Hosted tool activity recorded in run traces.",
		}, []string{"kind"}),
	}
	for _, col := range []prometheus.Collector{c.runs, c.duration, c.tokens, c.tools} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Hook is a session.RunHook.
func (c *Collector) Hook(r session.RunReport) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if !r.Succeeded() {
		outcome = OutcomeError
	}
	c.runs.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(r.Duration().Seconds())
	if r.TotalTokens > 0 {
		c.tokens.Add(float64(r.TotalTokens))
	}
	if r.ToolCalls > 0 {
		c.tools.WithLabelValues("tool_call").Add(float64(r.ToolCalls))
	}
	if r.SearchQueries > 0 {
		c.tools.WithLabelValues("search_query").Add(float64(r.SearchQueries))
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done. ln may be nil, in which
// case addr is dialled with net.Listen.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("metrics: listen %q: %w", addr, err)
		}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}
