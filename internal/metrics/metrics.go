// Package metrics implements the observability hooks with Prometheus
// collectors and serves them on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/worldmap/pkg/observability"
)

const namespace = "worldmap"

// Metrics holds every worldmap collector in its own registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	layoutRuns      *prometheus.CounterVec
	layoutDuration  *prometheus.HistogramVec
	layoutNodes     *prometheus.HistogramVec
	relayoutDropped *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec

	routeEdges    *prometheus.CounterVec
	routeDuration prometheus.Histogram

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a fresh registry with the layout, routing, cache and HTTP
// collectors registered, plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		layoutRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_runs_total",
			Help:      "Layout engine runs by engine and result",
		}, []string{"engine", "result"}),

		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Duration of layout engine runs",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		}, []string{"engine"}),

		layoutNodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Number of nodes handed to a layout engine",
			Buckets:   prometheus.ExponentialBuckets(4, 4, 7),
		}, []string{"engine"}),

		relayoutDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayout_discarded_total",
			Help:      "Relayout results discarded because a newer request superseded them",
		}, []string{"engine"}),

		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_fallbacks_total",
			Help:      "Failed engine runs replaced by grid positions",
		}, []string{"engine"}),

		routeEdges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_edges_total",
			Help:      "Routed edges; adjusted and blocked are subsets of routed",
		}, []string{"outcome"}),

		routeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_duration_seconds",
			Help:      "Duration of one routing pass over all edges",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),

		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes by key type",
		}, []string{"type", "event"}),

		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"type"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests processed",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.layoutRuns, m.layoutDuration, m.layoutNodes, m.relayoutDropped, m.fallbacks,
		m.routeEdges, m.routeDuration,
		m.cacheEvents, m.cacheBytes,
		m.httpRequests, m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	if m == nil {
		return
	}
	observability.SetLayoutHooks(m)
	observability.SetRouteHooks(m)
	observability.SetCacheHooks(m)
	observability.SetServerHooks(m)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// observability.LayoutHooks
// =============================================================================

// OnLayoutStart records the graph size.
func (m *Metrics) OnLayoutStart(_ context.Context, engine string, nodeCount int) {
	if m == nil {
		return
	}
	m.layoutNodes.WithLabelValues(engine).Observe(float64(nodeCount))
}

// OnLayoutComplete counts the run and its duration.
func (m *Metrics) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.layoutRuns.WithLabelValues(engine, result).Inc()
	m.layoutDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// OnRelayoutDiscarded counts a superseded result.
func (m *Metrics) OnRelayoutDiscarded(_ context.Context, engine string, _ uint64) {
	if m == nil {
		return
	}
	m.relayoutDropped.WithLabelValues(engine).Inc()
}

// OnRelayoutFallback counts a grid fallback.
func (m *Metrics) OnRelayoutFallback(_ context.Context, engine string, _ error) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(engine).Inc()
}

// =============================================================================
// observability.RouteHooks
// =============================================================================

// OnRouteComplete counts routed edges. Adjusted and blocked are subsets of
// routed and may overlap.
func (m *Metrics) OnRouteComplete(_ context.Context, edges, adjusted, blocked int, d time.Duration) {
	if m == nil {
		return
	}
	m.routeEdges.WithLabelValues("routed").Add(float64(edges))
	m.routeEdges.WithLabelValues("adjusted").Add(float64(adjusted))
	m.routeEdges.WithLabelValues("blocked").Add(float64(blocked))
	m.routeDuration.Observe(d.Seconds())
}

// =============================================================================
// observability.CacheHooks
// =============================================================================

// OnCacheHit counts a hit.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss counts a miss.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet counts a write and its size.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// observability.ServerHooks
// =============================================================================

// OnRequest records a single HTTP request/response cycle.
func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.RouteHooks  = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.ServerHooks = (*Metrics)(nil)
)
