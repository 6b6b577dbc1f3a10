package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the planning
// engine and the HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	planningRuns    *prometheus.CounterVec
	planningTime    prometheus.Observer
	changesProposed prometheus.Counter
	changeOutcomes  *prometheus.CounterVec
	velocityUpdates prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
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

	planningRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_runs_total",
		Help: "Planning proposal runs by mode and outcome",
	}, []string{"mode", "outcome"})

	planningTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planning_run_duration_seconds",
		Help:    "Duration of plan proposal runs",
		Buckets: prometheus.DefBuckets,
	})

	changesProposed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proposed_changes_total",
		Help: "Total schedule changes drafted by the packer",
	})

	changeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "applied_changes_total",
		Help: "Apply attempts by per-change outcome",
	}, []string{"outcome"})

	velocityUpdates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "velocity_recomputes_total",
		Help: "Total velocity record recomputations",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_hits_total",
		Help: "Availability cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_misses_total",
		Help: "Availability cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, planningRuns, planningTime,
		changesProposed, changeOutcomes, velocityUpdates, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		planningRuns:    planningRuns,
		planningTime:    planningTime,
		changesProposed: changesProposed,
		changeOutcomes:  changeOutcomes,
		velocityUpdates: velocityUpdates,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObservePlanningRun records one proposal run.
func (m *MetricsService) ObservePlanningRun(mode, outcome string, changes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.planningRuns.WithLabelValues(mode, outcome).Inc()
	m.planningTime.Observe(duration.Seconds())
	m.changesProposed.Add(float64(changes))
}

// ObserveChangeOutcome counts one apply attempt result.
func (m *MetricsService) ObserveChangeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.changeOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveVelocityUpdates counts recomputed velocity records.
func (m *MetricsService) ObserveVelocityUpdates(count int) {
	if m == nil {
		return
	}
	m.velocityUpdates.Add(float64(count))
}

// RecordCacheLookup counts an availability cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
