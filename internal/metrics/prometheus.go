package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kittens"

// PrometheusRecorder implements Recorder on top of a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	kittensCreated  prometheus.Counter
	kittensDeleted  prometheus.Counter
	kittenCache     *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheus registers the application collectors, plus Go runtime and
// process collectors, on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auto := promauto.With(registry)

	return &PrometheusRecorder{
		registry: registry,
		kittensCreated: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kittens_created_total",
			Help:      "Kittens created",
		}),
		kittensDeleted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kittens_deleted_total",
			Help:      "Kittens deleted",
		}),
		kittenCache: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitten_cache_lookups_total",
			Help:      "Kitten cache lookups by result",
		}, []string{"result"}),
		authFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected authentication attempts by reason",
		}, []string{"reason"}),
		requestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncKittenCreated increments kitten created counter.
func (p *PrometheusRecorder) IncKittenCreated() {
	p.kittensCreated.Inc()
}

// IncKittenDeleted increments kitten deleted counter.
func (p *PrometheusRecorder) IncKittenDeleted() {
	p.kittensDeleted.Inc()
}

// IncKittenCacheHit increments the cache counter with result="hit".
func (p *PrometheusRecorder) IncKittenCacheHit() {
	p.kittenCache.WithLabelValues("hit").Inc()
}

// IncKittenCacheMiss increments the cache counter with result="miss".
func (p *PrometheusRecorder) IncKittenCacheMiss() {
	p.kittenCache.WithLabelValues("miss").Inc()
}

// IncAuthFailure counts a rejected request by reason.
func (p *PrometheusRecorder) IncAuthFailure(reason string) {
	p.authFailures.WithLabelValues(reason).Inc()
}

// ObserveRequestDuration records request duration in seconds.
func (p *PrometheusRecorder) ObserveRequestDuration(method, route string, status int, duration time.Duration) {
	p.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
