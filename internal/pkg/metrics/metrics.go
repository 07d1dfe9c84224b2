package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every rentfleet collector; it is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// VehicleTransitions counts state machine events per vehicle event and result.
	// result: ok / noop / rejected
	VehicleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentfleet_vehicle_transitions_total",
			Help: "Vehicle state machine events by event and result.",
		},
		[]string{"event", "result"},
	)

	// ActiveDrives is the number of telemetry simulator goroutines alive.
	ActiveDrives = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentfleet_simulator_active_drives",
			Help: "Number of running vehicles with a live telemetry simulator.",
		},
	)

	// TelemetryEmitted counts snapshots per sink and outcome.
	// outcome: sent / dropped / failed
	TelemetryEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentfleet_telemetry_emitted_total",
			Help: "Telemetry snapshots handed to a sink, by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)

	// HandoffTotal counts finished handoffs by kind (access/prepayment/invoice/final) and outcome.
	HandoffTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentfleet_handoff_total",
			Help: "Completed callback handoffs by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// HandoffLatency records the time from opening a wait to its completion.
	HandoffLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentfleet_handoff_latency_seconds",
			Help:    "Latency between opening a handoff wait and receiving the decision.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// CallbacksTotal counts inbound authority callbacks by kind and result.
	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentfleet_callbacks_total",
			Help: "Inbound authority callbacks by kind and result (delivered/no_waiter/invalid).",
		},
		[]string{"kind", "result"},
	)

	// HTTPRequests counts served requests by route template, method and status code.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentfleet_http_requests_total",
			Help: "HTTP requests served by route, method and code.",
		},
		[]string{"route", "method", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		VehicleTransitions,
		ActiveDrives,
		TelemetryEmitted,
		HandoffTotal,
		HandoffLatency,
		CallbacksTotal,
		HTTPRequests,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
