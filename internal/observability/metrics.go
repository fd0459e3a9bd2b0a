package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the pipeline and front doors.
type Metrics struct {
	registry       *prometheus.Registry
	Invocations    *prometheus.CounterVec
	Attempts       *prometheus.CounterVec
	InvokeDuration *prometheus.HistogramVec
	ModuleDetails  *prometheus.CounterVec
	RPCRequests    *prometheus.CounterVec
	LiveSessions   prometheus.Gauge
	TransportErrs  *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with pipeline collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdsmcp_provider_invocations_total",
		Help: "Provider invocations by provider and outcome",
	}, []string{"provider", "outcome"})

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdsmcp_provider_attempts_total",
		Help: "Individual provider attempts, retries included",
	}, []string{"provider"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sdsmcp_provider_invocation_duration_seconds",
		Help:    "Provider invocation duration in seconds, retries and backoff included",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
	}, []string{"provider"})

	details := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdsmcp_module_details_total",
		Help: "Module detail generations by outcome (ok or stub)",
	}, []string{"outcome"})

	rpc := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdsmcp_rpc_requests_total",
		Help: "RPC requests by method and response code (0 for success)",
	}, []string{"method", "code"})

	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sdsmcp_live_sessions",
		Help: "Sessions currently held in memory",
	})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdsmcp_transport_errors_total",
		Help: "Transport-level errors by transport and reason",
	}, []string{"transport", "reason"})

	reg.MustRegister(invocations, attempts, durs, details, rpc, sessions, trErrors)

	return &Metrics{
		registry:       reg,
		Invocations:    invocations,
		Attempts:       attempts,
		InvokeDuration: durs,
		ModuleDetails:  details,
		RPCRequests:    rpc,
		LiveSessions:   sessions,
		TransportErrs:  trErrors,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordInvocation records one completed invocation.
func (m *Metrics) RecordInvocation(provider, outcome string, attempts int, duration time.Duration) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	m.Invocations.WithLabelValues(provider, outcome).Inc()
	m.Attempts.WithLabelValues(provider).Add(float64(attempts))
	m.InvokeDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordModuleDetail counts a detailed module as ok or stubbed.
func (m *Metrics) RecordModuleDetail(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "stub"
	}
	m.ModuleDetails.WithLabelValues(outcome).Inc()
}

// RecordRPC counts an RPC response; code 0 means success.
func (m *Metrics) RecordRPC(method string, code int) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.RPCRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// SetLiveSessions updates the session gauge.
func (m *Metrics) SetLiveSessions(n int) {
	if m == nil {
		return
	}
	m.LiveSessions.Set(float64(n))
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	if transport == "" {
		transport = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.TransportErrs.WithLabelValues(transport, reason).Inc()
}
