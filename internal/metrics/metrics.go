// Package metrics defines orgtwin's observability instruments (C14):
// three prometheus/client_golang collectors registered in a private
// registry, never the global default registry, so `go test` stays
// hermetic (SPEC_FULL.md §4.11, grounded on jordigilh-kubernaut's
// prometheus usage).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels the result of a dispatcher tool call.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Registry bundles orgtwin's instruments and the private prometheus
// registry they are registered against.
type Registry struct {
	reg *prometheus.Registry

	ToolCallsTotal       *prometheus.CounterVec
	ToolCallDuration     *prometheus.HistogramVec
	GenerationDuration   *prometheus.HistogramVec
}

// New constructs a Registry with all instruments registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtwin_tool_calls_total",
			Help: "Total number of dispatcher tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		ToolCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orgtwin_tool_call_duration_seconds",
			Help:    "Dispatcher tool call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orgtwin_generation_duration_seconds",
			Help:    "Synthetic generator layer execution time in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"layer"}),
	}

	reg.MustRegister(r.ToolCallsTotal, r.ToolCallDuration, r.GenerationDuration)
	return r
}

// Gatherer exposes the underlying registry for promhttp.HandlerFor, used
// by `serve --rest`'s /metrics endpoint.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveToolCall records one dispatcher tool invocation's outcome and
// duration. Called from the Execute/ErrorReply transitions of the
// dispatcher state machine.
func (r *Registry) ObserveToolCall(tool string, outcome Outcome, duration time.Duration) {
	r.ToolCallsTotal.WithLabelValues(tool, string(outcome)).Inc()
	r.ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveGenerationLayer records one generator layer's execution time,
// called once per layer from the orchestrator loop.
func (r *Registry) ObserveGenerationLayer(layer string, duration time.Duration) {
	r.GenerationDuration.WithLabelValues(layer).Observe(duration.Seconds())
}

// Timer returns a function that, when called, reports the time elapsed
// since Timer was invoked.
func Timer() (elapsed func() time.Duration) {
	start := time.Now()
	return func() time.Duration { return time.Since(start) }
}
