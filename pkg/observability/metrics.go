package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowmap"

// Metrics holds the Prometheus collectors for the flow map. It implements
// every hook interface; install it with Install(All(m)).
type Metrics struct {
	// Pipeline metrics.
	Loads            *prometheus.CounterVec   // labels: outcome={success,error}
	LoadDuration     prometheus.Histogram
	Compositions     *prometheus.CounterVec   // labels: outcome
	SkippedFlows     prometheus.Counter
	Renders          *prometheus.CounterVec   // labels: format, outcome
	RenderDuration   *prometheus.HistogramVec // labels: format
	DatasetLocations prometheus.Gauge
	DatasetFlows     prometheus.Gauge

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: kind, result={hit,miss}
	CacheBytes   *prometheus.CounterVec // labels: kind

	// Topology download metrics.
	FetchRequests *prometheus.CounterVec // labels: host, outcome
	FetchDuration prometheus.Histogram

	// Server metrics.
	SessionsActive   prometheus.Gauge
	SessionsStarted  prometheus.Counter
	SelectionChanges *prometheus.CounterVec // labels: control
	Reloads          *prometheus.CounterVec // labels: outcome
	HTTPRequests    *prometheus.CounterVec   // labels: route, status
	RequestDuration *prometheus.HistogramVec // labels: route

	gatherer prometheus.Gatherer
}

// NewMetrics creates all metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg)
}

func newMetrics(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset and topology loads by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of loading the migration CSV and topology.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_compositions_total",
			Help:      "Scene compositions by outcome.",
		}, []string{"outcome"}),
		SkippedFlows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_flows_total",
			Help:      "Flows left out of a scene (zero length, duplicate, off the map).",
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Rendered artifacts by format and outcome.",
		}, []string{"format", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a render call by format.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"format"}),
		DatasetLocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_locations",
			Help:      "Locations in the loaded dataset.",
		}),
		DatasetFlows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_flows",
			Help:      "Flow edges in the loaded dataset.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Render cache lookups by key kind and result.",
		}, []string{"kind", "result"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the render cache by key kind.",
		}, []string{"kind"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Remote input downloads by host and outcome.",
		}, []string{"host", "outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Remote input download duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Selection sessions held by the server.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Selection sessions handed out to new browsers.",
		}),
		SelectionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_changes_total",
			Help:      "Control changes by control (location, direction, display).",
		}, []string{"control"}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Server dataset reloads by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Served HTTP request duration by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"route"}),
		gatherer: g,
	}

	reg.MustRegister(
		m.Loads,
		m.LoadDuration,
		m.Compositions,
		m.SkippedFlows,
		m.Renders,
		m.RenderDuration,
		m.DatasetLocations,
		m.DatasetFlows,
		m.CacheLookups,
		m.CacheBytes,
		m.FetchRequests,
		m.FetchDuration,
		m.SessionsActive,
		m.SessionsStarted,
		m.SelectionChanges,
		m.Reloads,
		m.HTTPRequests,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.gatherer }

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// =============================================================================
// Hook implementations
// =============================================================================

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, locations, flows int, d time.Duration, err error) {
	m.Loads.WithLabelValues(outcome(err)).Inc()
	m.LoadDuration.Observe(d.Seconds())
	if err == nil {
		m.DatasetLocations.Set(float64(locations))
		m.DatasetFlows.Set(float64(flows))
	}
}

func (m *Metrics) OnComposeStart(context.Context, string) {}

func (m *Metrics) OnComposeComplete(_ context.Context, _ string, _, skipped int, _ time.Duration, err error) {
	m.Compositions.WithLabelValues(outcome(err)).Inc()
	m.SkippedFlows.Add(float64(skipped))
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		m.Renders.WithLabelValues(f, outcome(err)).Inc()
		m.RenderDuration.WithLabelValues(f).Observe(d.Seconds())
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.CacheLookups.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.CacheLookups.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, size int) {
	m.CacheBytes.WithLabelValues(kind).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.FetchRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.FetchRequests.WithLabelValues(host, "error").Inc()
}

func (m *Metrics) OnSessionStart(context.Context) { m.SessionsStarted.Inc() }

func (m *Metrics) OnSelectionChange(_ context.Context, control string) {
	m.SelectionChanges.WithLabelValues(control).Inc()
}

func (m *Metrics) OnSessionsSwept(_ context.Context, active int) {
	m.SessionsActive.Set(float64(active))
}

func (m *Metrics) OnReload(_ context.Context, err error) {
	m.Reloads.WithLabelValues(outcome(err)).Inc()
}
