// Package metrics exposes the bridge's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles all counters and gauges the bridge maintains.
type Metrics struct {
	// Inbound OSC traffic
	OSCMessages *prometheus.CounterVec
	Commands    *prometheus.CounterVec

	// Session exchanges
	SessionRequests *prometheus.CounterVec
	SessionErrors   prometheus.Counter

	// Poll loop
	PollTicks      prometheus.Counter
	StatePublishes prometheus.Counter
	ActiveMics     prometheus.Gauge
}

// New registers every metric on reg and returns the bundle. Tests pass a
// fresh registry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OSCMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_osc_messages_total",
			Help: "Inbound OSC messages by address",
		}, []string{"address"}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_commands_total",
			Help: "Microphone commands accepted, by command",
		}, []string{"command"}),
		SessionRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_session_requests_total",
			Help: "Requests sent over the conference session, by operation",
		}, []string{"operation"}),
		SessionErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "bridge_session_errors_total",
			Help: "Failed or error-tagged session exchanges",
		}),
		PollTicks: f.NewCounter(prometheus.CounterOpts{
			Name: "bridge_poll_ticks_total",
			Help: "Discussion-list poll ticks executed",
		}),
		StatePublishes: f.NewCounter(prometheus.CounterOpts{
			Name: "bridge_state_publishes_total",
			Help: "Active-mic state messages published over OSC",
		}),
		ActiveMics: f.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_active_mics",
			Help: "Active microphones in the last discussion snapshot",
		}),
	}
}
