package agentui

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes Prometheus metrics for the request lifecycle,
// coalescing, caching and stream parsing. Safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal       *prometheus.CounterVec
	deduplicationHits  *prometheus.CounterVec
	cancellationsTotal prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	streamLines     prometheus.Counter
	malformedEvents prometheus.Counter

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer (use a fresh registry in tests).
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentui_requests_total",
				Help: "Total number of workflow API requests made",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentui_request_duration_seconds",
				Help:    "Duration of workflow API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentui_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentui_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		deduplicationHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentui_deduplication_hits_total",
				Help: "Total number of requests coalesced onto an in-flight call",
			},
			[]string{"method", "endpoint"},
		),
		cancellationsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agentui_cancellations_total",
				Help: "Total number of explicitly cancelled requests",
			},
		),
		cacheHits: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agentui_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),
		cacheMisses: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agentui_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),
		streamLines: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agentui_stream_lines_total",
				Help: "Total number of log lines parsed from streams",
			},
		),
		malformedEvents: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "agentui_malformed_events_total",
				Help: "Total number of event-shaped lines whose JSON failed to decode",
			},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentui_errors_total",
				Help: "Total number of request errors by type",
			},
			[]string{"type", "method", "endpoint"},
		),
	}
}

func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, code, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, code, endpoint).Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	mc.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

func (mc *MetricsCollector) RecordDeduplicationHit(method, endpoint string) {
	mc.deduplicationHits.WithLabelValues(method, endpoint).Inc()
}

func (mc *MetricsCollector) RecordCancellation() {
	mc.cancellationsTotal.Inc()
}

func (mc *MetricsCollector) RecordCacheHit()  { mc.cacheHits.Inc() }
func (mc *MetricsCollector) RecordCacheMiss() { mc.cacheMisses.Inc() }

func (mc *MetricsCollector) RecordStreamLine()     { mc.streamLines.Inc() }
func (mc *MetricsCollector) RecordMalformedEvent() { mc.malformedEvents.Inc() }

func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}
