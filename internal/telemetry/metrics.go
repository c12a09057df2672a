// Package telemetry exposes prometheus instrumentation for sync and
// fan-out operations.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the platform's prometheus collectors.
type Metrics struct {
	syncTotal     *prometheus.CounterVec
	syncDuration  prometheus.Histogram
	dispatchTotal *prometheus.CounterVec
}

// NewMetrics registers the platform collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		syncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caravel",
			Name:      "repository_syncs_total",
			Help:      "Repository synchronization passes by outcome.",
		}, []string{"outcome"}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "caravel",
			Name:      "repository_sync_duration_seconds",
			Help:      "Duration of repository synchronization passes.",
			Buckets:   prometheus.DefBuckets,
		}),
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caravel",
			Name:      "agent_dispatches_total",
			Help:      "Agent command dispatches by command and outcome.",
		}, []string{"command", "outcome"}),
	}
}

// ObserveSync records the outcome and duration of one sync pass.
func (m *Metrics) ObserveSync(d time.Duration, success bool) {
	m.syncTotal.WithLabelValues(outcome(success)).Inc()
	m.syncDuration.Observe(d.Seconds())
}

// CountDispatch records the outcome of one per-consumer agent dispatch.
func (m *Metrics) CountDispatch(command string, success bool) {
	m.dispatchTotal.WithLabelValues(command, outcome(success)).Inc()
}

func outcome(success bool) string {
	if success {
		return outcomeSuccess
	}
	return outcomeFailure
}
