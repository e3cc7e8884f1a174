package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	reg *prometheus.Registry

	connections prometheus.Gauge
	rooms       prometheus.Gauge
	messages    *prometheus.CounterVec
	assistant   *prometheus.CounterVec
	dropped     prometheus.Counter
	rejected    *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live connections in the registry.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms created since start.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages appended to room logs.",
		}, []string{"type"}),
		assistant: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_replies_total",
			Help:      "Assistant reply outcomes.",
		}, []string{"outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_dropped_total",
			Help:      "Events that could not be queued for a connection.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Inbound events dropped by policy.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections,
		m.rooms,
		m.messages,
		m.assistant,
		m.dropped,
		m.rejected,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) SetConnections(n int) {
	if m != nil {
		m.connections.Set(float64(n))
	}
}

func (m *Metrics) SetRooms(n int) {
	if m != nil {
		m.rooms.Set(float64(n))
	}
}

func (m *Metrics) MessageAppended(kind string) {
	if m != nil {
		m.messages.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) AssistantOutcome(outcome string) {
	if m != nil {
		m.assistant.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) DeliveryDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) Rejected(reason string) {
	if m != nil {
		m.rejected.WithLabelValues(reason).Inc()
	}
}
