package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by ObserveLogin.
const (
	LoginOutcomeSuccess   = "success"
	LoginOutcomeFailure   = "failure"
	LoginOutcomeIntegrity = "integrity_fault"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService
// is valid and records nothing.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	searchResults   prometheus.Histogram
	searchDuration  *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	registrations   prometheus.Counter
}

// NewMetricsService registers the directory's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	searchResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "directory_search_results",
		Help:    "Number of results returned per search",
		Buckets: []float64{0, 1, 5, 10, 25, 50},
	})

	searchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "directory_search_duration_seconds",
		Help:    "Time spent answering a search",
		Buckets: prometheus.DefBuckets,
	}, []string{"cache"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	registrations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "directory_registrations_total",
		Help: "Successful student registrations",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups, dbQueryDuration,
		searchResults, searchDuration, logins, registrations, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		dbQueryDuration: dbQueryDuration,
		searchResults:   searchResults,
		searchDuration:  searchDuration,
		logins:          logins,
		registrations:   registrations,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveSearch records the size and latency of a search response.
func (m *MetricsService) ObserveSearch(results int, cacheHit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.searchResults.Observe(float64(results))
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.searchDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt by outcome.
func (m *MetricsService) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// ObserveRegistration counts a completed registration.
func (m *MetricsService) ObserveRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}
