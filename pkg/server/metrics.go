package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/idom/pkg/layout"
	"github.com/vango-dev/idom/pkg/vdom"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "idom").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics records server activity. A nil *Metrics records nothing.
type Metrics struct {
	activeConns    prometheus.Gauge
	connsTotal     prometheus.Counter
	eventsTotal    *prometheus.CounterVec
	callbackErrors prometheus.Counter
	warnings       *prometheus.CounterVec
	patchesSent    prometheus.Counter
	patchOps       *prometheus.CounterVec
	renderDuration prometheus.Histogram
	uploadChunks   prometheus.Counter
}

// NewMetrics registers the server metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "idom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "active_connections",
			Help:        "Number of connected clients",
			ConstLabels: config.ConstLabels,
		}),
		connsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "connections_total",
			Help:        "Total number of client connections",
			ConstLabels: config.ConstLabels,
		}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "events_total",
			Help:        "Total number of client events dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),
		callbackErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "callback_errors_total",
			Help:        "Total number of event callbacks that failed",
			ConstLabels: config.ConstLabels,
		}),
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "unknown_target_warnings_total",
			Help:        "Total number of events for unknown targets",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),
		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "patches_sent_total",
			Help:        "Total number of layout updates sent",
			ConstLabels: config.ConstLabels,
		}),
		patchOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "patch_ops_total",
			Help:        "Total number of patch operations sent",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "render_duration_seconds",
			Help:        "Render and dispatch duration in seconds",
			Buckets:     config.Buckets,
			ConstLabels: config.ConstLabels,
		}),
		uploadChunks: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "upload_chunks_total",
			Help:        "Total number of file-upload chunks received",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
	m.connsTotal.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
}

func (m *Metrics) event(eventType string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.callbackErrors.Inc()
	}
	m.eventsTotal.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) warning(w layout.UnknownTargetWarning) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(w.Reason).Inc()
}

func (m *Metrics) rendered(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) patchSent(p *vdom.Patch) {
	if m == nil {
		return
	}
	m.patchesSent.Inc()
	for _, op := range p.Ops {
		m.patchOps.WithLabelValues(string(op.Kind)).Inc()
	}
}

func (m *Metrics) uploadChunk() {
	if m == nil {
		return
	}
	m.uploadChunks.Inc()
}
