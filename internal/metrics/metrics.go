package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/duochat-server/internal/service/chat"
)

// Metrics holds all Prometheus metrics for the server. Each instance owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RoomsCreated      prometheus.Counter
	RoomsDeleted      prometheus.Counter
	MessagesCreated   prometheus.Counter
	MessagesDeleted   prometheus.Counter
	RelayConnections  prometheus.Gauge
	DeliveriesDropped prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RoomsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "duochat_rooms_created_total",
			Help: "Total number of chat rooms created",
		}),
		RoomsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "duochat_rooms_deleted_total",
			Help: "Total number of chat rooms deleted",
		}),
		MessagesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "duochat_messages_created_total",
			Help: "Total number of messages stored",
		}),
		MessagesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "duochat_messages_deleted_total",
			Help: "Total number of messages deleted by their sender",
		}),
		RelayConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "duochat_relay_connections",
			Help: "Number of WebSocket connections attached to the relay",
		}),
		DeliveriesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "duochat_relay_deliveries_dropped_total",
			Help: "Relay events skipped because the client buffer was full",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "duochat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Publish implements chat.EventPublisher by counting events.
func (m *Metrics) Publish(_ context.Context, ev chat.Event) {
	switch ev.Kind {
	case chat.EventRoomCreated:
		m.RoomsCreated.Inc()
	case chat.EventRoomDeleted:
		m.RoomsDeleted.Inc()
	case chat.EventMessageCreated:
		m.MessagesCreated.Inc()
	case chat.EventMessageDeleted:
		m.MessagesDeleted.Inc()
	}
}

// ClientRegistered implements core.Observer.
func (m *Metrics) ClientRegistered() {
	m.RelayConnections.Inc()
}

// ClientUnregistered implements core.Observer.
func (m *Metrics) ClientUnregistered() {
	m.RelayConnections.Dec()
}

// DeliveryDropped implements core.Observer.
func (m *Metrics) DeliveryDropped(n int) {
	m.DeliveriesDropped.Add(float64(n))
}

// ObserveRequest records the duration of an HTTP request.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
