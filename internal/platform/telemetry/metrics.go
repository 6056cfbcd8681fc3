package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label shared by all instrument families. Failures carry the
// taxonomy kind instead.
const OutcomeOK = "ok"

// Metrics aggregates the daemon's Prometheus instruments on a private
// registry. All record methods are nil-safe so components can be built
// without telemetry in tests.
type Metrics struct {
	registry *prometheus.Registry

	chainRequests  *prometheus.CounterVec
	chainLatency   *prometheus.HistogramVec
	walletConnects *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	accountStatus  prometheus.Gauge
	notifications  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		chainRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solportal",
			Subsystem: "chain",
			Name:      "requests_total",
			Help:      "Chain RPC operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		chainLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solportal",
			Subsystem: "chain",
			Name:      "request_duration_seconds",
			Help:      "Chain RPC operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		walletConnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solportal",
			Subsystem: "wallet",
			Name:      "connects_total",
			Help:      "Wallet connect attempts by mode and outcome.",
		}, []string{"mode", "outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solportal",
			Subsystem: "portal",
			Name:      "submissions_total",
			Help:      "Gif submissions by outcome.",
		}, []string{"outcome"}),
		accountStatus: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "solportal",
			Subsystem: "portal",
			Name:      "account_status",
			Help:      "Account state: 0 unknown, 1 uninitialized, 2 ready.",
		}),
		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "solportal",
			Subsystem: "portal",
			Name:      "notifications_total",
			Help:      "Events published to the UI stream.",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordChainOp(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chainRequests.WithLabelValues(op, outcome).Inc()
	m.chainLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordWalletConnect(mode, outcome string) {
	if m == nil {
		return
	}
	m.walletConnects.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetAccountStatus(level float64) {
	if m == nil {
		return
	}
	m.accountStatus.Set(level)
}

func (m *Metrics) RecordNotification() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}
