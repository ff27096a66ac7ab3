// Package metrics exposes Prometheus counters for the
// message traffic and work done by the shortest-path
// protocols.
//
// Every method is safe to call on a nil *Metrics, which
// records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Message kinds used as the "kind" label.
const (
	KindData       = "data"
	KindCollective = "collective"
	KindLocal      = "local"
)

// Metrics is a set of counters registered on one
// prometheus.Registerer.
type Metrics struct {
	MessagesSent *prometheus.CounterVec
	SendRetries  prometheus.Counter
	Rounds       *prometheus.CounterVec
	Relaxations  *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
//
// Use a fresh prometheus.NewRegistry() per run when the
// counts of separate runs must not be mixed.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sssp_messages_sent_total",
			Help: "Messages handed to the network or to a local mailbox.",
		}, []string{"kind"}),
		SendRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "sssp_send_retries_total",
			Help: "Sends that failed and were retried.",
		}),
		Rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sssp_rounds_total",
			Help: "Protocol rounds completed, summed over workers.",
		}, []string{"algorithm"}),
		Relaxations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sssp_relaxations_total",
			Help: "Edge relaxations that improved an estimate.",
		}, []string{"algorithm"}),
	}
}

// MessageSent counts one message of the given kind.
func (m *Metrics) MessageSent(kind string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(kind).Inc()
}

// Retry counts one retried send.
func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.SendRetries.Inc()
}

// Round counts one completed round of an algorithm.
func (m *Metrics) Round(algorithm string) {
	if m == nil {
		return
	}
	m.Rounds.WithLabelValues(algorithm).Inc()
}

// Relaxation counts one improving relaxation.
func (m *Metrics) Relaxation(algorithm string) {
	if m == nil {
		return
	}
	m.Relaxations.WithLabelValues(algorithm).Inc()
}

// MessageCount gets the number of messages of the kind
// sent so far.
func (m *Metrics) MessageCount(kind string) int {
	if m == nil {
		return 0
	}
	return int(counterValue(m.MessagesSent.WithLabelValues(kind)))
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}
