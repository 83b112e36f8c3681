// Package telemetry provides ambient instrumentation for meetingscribe:
// Prometheus metrics for task/webhook outcomes and OTEL tracing for
// workflow task execution. Both are nil-safe so callers that never wire a
// Recorder (most tests) pay no cost. Grounded on the OTEL-metrics wrapper
// pattern in goadesign-goa-ai's runtime/agent/telemetry/clue.go, adapted to
// Prometheus client types since pkg/telemetry is this repo's single
// instrumentation surface rather than a pluggable Metrics interface.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder holds every Prometheus collector meetingscribe exposes, plus the
// OTEL metric instruments mirrored alongside them. A nil *Recorder is
// valid: every method is a no-op on a nil receiver, so components can be
// constructed without one (e.g. in tests).
type Recorder struct {
	registry        *prometheus.Registry
	taskDuration    *prometheus.HistogramVec
	taskOutcomes    *prometheus.CounterVec
	webhookOutcomes *prometheus.CounterVec
	wsConnections   prometheus.Gauge

	// otelTaskDuration mirrors taskDuration through the process-global OTEL
	// MeterProvider, so an OTLP exporter configured via the standard
	// OTEL_EXPORTER_OTLP_* env vars carries task timings alongside traces
	// without a second Prometheus scrape target.
	otelTaskDuration metric.Float64Histogram
}

// NewRecorder builds a Recorder with its own Prometheus registry (not the
// global DefaultRegisterer), so multiple Recorders can coexist in tests
// without "duplicate metrics collector registration" panics.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meetingscribe_task_duration_seconds",
			Help:    "Workflow task execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task_type", "outcome"}),
		taskOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetingscribe_task_total",
			Help: "Workflow tasks executed, labeled by outcome (success, failure).",
		}, []string{"task_type", "outcome"}),
		webhookOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetingscribe_webhook_delivery_total",
			Help: "Outbound room-webhook delivery attempts, labeled by outcome.",
		}, []string{"outcome"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meetingscribe_websocket_connections",
			Help: "Currently open WebSocket connections.",
		}),
	}
	reg.MustRegister(r.taskDuration, r.taskOutcomes, r.webhookOutcomes, r.wsConnections)

	hist, err := otel.Meter(tracerName).Float64Histogram(
		"meetingscribe.task.duration",
		metric.WithDescription("Workflow task execution duration in seconds."),
		metric.WithUnit("s"),
	)
	if err == nil {
		r.otelTaskDuration = hist
	}
	return r
}

// ObserveTask records a completed task's duration and outcome, both to
// Prometheus and to the OTEL MeterProvider.
func (r *Recorder) ObserveTask(taskType, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.taskDuration.WithLabelValues(taskType, outcome).Observe(d.Seconds())
	r.taskOutcomes.WithLabelValues(taskType, outcome).Inc()
	if r.otelTaskDuration != nil {
		r.otelTaskDuration.Record(context.Background(), d.Seconds(), metric.WithAttributes(
			attribute.String("task.type", taskType),
			attribute.String("outcome", outcome),
		))
	}
}

// ObserveWebhookDelivery records one outbound webhook delivery attempt.
func (r *Recorder) ObserveWebhookDelivery(outcome string) {
	if r == nil {
		return
	}
	r.webhookOutcomes.WithLabelValues(outcome).Inc()
}

// SetActiveConnections reports the current WebSocket connection count.
func (r *Recorder) SetActiveConnections(n int) {
	if r == nil {
		return
	}
	r.wsConnections.Set(float64(n))
}

// Handler exposes the Recorder's registry for scraping. A nil Recorder
// returns a handler that always answers 503, so wiring it in unconditionally
// is safe.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "telemetry not configured", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
