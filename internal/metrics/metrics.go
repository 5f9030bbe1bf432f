// Package metrics exposes Prometheus counters for session engine outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hubsession"

// Collector holds the engine's Prometheus instruments.
type Collector struct {
	Confirmations  *prometheus.CounterVec
	ReportedState  *prometheus.CounterVec
	MethodDispatch *prometheus.CounterVec
	InboundMessage *prometheus.CounterVec
	QueueDepth     *prometheus.GaugeVec
}

// New creates the collector and registers it with reg. A nil reg leaves the
// instruments unregistered, which is what tests and the CLI simulator use.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_confirmations_total",
			Help:      "Terminal telemetry outcomes by confirmation result.",
		}, []string{"result"}),
		ReportedState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reported_state_total",
			Help:      "Reported-state records by terminal outcome.",
		}, []string{"outcome"}),
		MethodDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "method_dispatch_total",
			Help:      "Direct method dispatches by callback variant and outcome.",
		}, []string{"variant", "outcome"}),
		InboundMessage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound messages by route and disposition.",
		}, []string{"route", "disposition"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Records held in each engine queue after the last tick.",
		}, []string{"queue"}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{
			c.Confirmations, c.ReportedState, c.MethodDispatch, c.InboundMessage, c.QueueDepth,
		} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Confirmation counts a telemetry outcome.
func (c *Collector) Confirmation(result string) {
	if c == nil {
		return
	}
	c.Confirmations.WithLabelValues(result).Inc()
}

// Reported counts a reported-state outcome.
func (c *Collector) Reported(outcome string) {
	if c == nil {
		return
	}
	c.ReportedState.WithLabelValues(outcome).Inc()
}

// Method counts a method dispatch.
func (c *Collector) Method(variant, outcome string) {
	if c == nil {
		return
	}
	c.MethodDispatch.WithLabelValues(variant, outcome).Inc()
}

// Inbound counts an inbound message.
func (c *Collector) Inbound(route, disposition string) {
	if c == nil {
		return
	}
	c.InboundMessage.WithLabelValues(route, disposition).Inc()
}

// Depth records the length of an engine queue.
func (c *Collector) Depth(queue string, n int) {
	if c == nil {
		return
	}
	c.QueueDepth.WithLabelValues(queue).Set(float64(n))
}
