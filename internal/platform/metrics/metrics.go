// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus registry of the studio API.

The registry is created once by the composition root and handed to every
component that records something. Nothing is registered on the global default
registry, so tests can build as many independent instances as they need.

Exposed on GET /metrics via [Registry.Handler].
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studio"

// Registry bundles the Prometheus registry with the collectors the API records into.
type Registry struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	clientConfig     *prometheus.CounterVec
	fallbackTiers    *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	permissionChecks *prometheus.CounterVec
	batchItems       *prometheus.CounterVec
	cronRuns         *prometheus.CounterVec
	cronDuration     *prometheus.HistogramVec
	eventSubscribers prometheus.Gauge
}

// New creates a registry with the Go and process collectors plus the studio collectors.
func New() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		clientConfig: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_config_requests_total",
			Help:      "Client config requests by outcome (served, forbidden, preflight).",
		}, []string{"outcome"}),
		fallbackTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_attempts_total",
			Help:      "Fallback chain attempts by chain, tier and outcome.",
		}, []string{"chain", "tier", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_transitions_total",
			Help:      "Assignment workflow events by event and result.",
		}, []string{"event", "result"}),
		permissionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_resolutions_total",
			Help:      "Effective permission resolutions by source (cache, store, defaults).",
		}, []string{"source"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Items processed by batch operations, by operation and result.",
		}, []string{"operation", "result"}),
		cronRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_job_runs_total",
			Help:      "Scheduled job runs by job name and result.",
		}, []string{"job_name", "result"}),
		cronDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_job_run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"job_name"}),
		eventSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_subscribers",
			Help:      "Live change-feed subscribers currently attached.",
		}),
	}

	registry.MustRegister(
		r.httpRequests, r.httpDuration, r.clientConfig, r.fallbackTiers, r.transitions,
		r.permissionChecks, r.batchItems, r.cronRuns, r.cronDuration, r.eventSubscribers,
	)

	return r
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// # Recorders

// ClientConfig counts one /client-config request.
func (r *Registry) ClientConfig(outcome string) {
	r.clientConfig.WithLabelValues(outcome).Inc()
}

// FallbackAttempt counts one tier attempt of a fallback chain.
func (r *Registry) FallbackAttempt(chain, tier, outcome string) {
	r.fallbackTiers.WithLabelValues(chain, tier, outcome).Inc()
}

// Transition counts one assignment workflow event.
func (r *Registry) Transition(event string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	r.transitions.WithLabelValues(event, result).Inc()
}

// PermissionResolved counts where an effective permission set came from.
func (r *Registry) PermissionResolved(source string) {
	r.permissionChecks.WithLabelValues(source).Inc()
}

// BatchItems adds the per-item outcome of a batch operation.
func (r *Registry) BatchItems(operation string, succeeded, failed int) {
	r.batchItems.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	r.batchItems.WithLabelValues(operation, "failed").Add(float64(failed))
}

// CronRun records one scheduled job run.
func (r *Registry) CronRun(jobName string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.cronRuns.WithLabelValues(jobName, result).Inc()
	r.cronDuration.WithLabelValues(jobName).Observe(duration.Seconds())
}

// SubscriberDelta moves the live subscriber gauge.
func (r *Registry) SubscriberDelta(delta int) {
	r.eventSubscribers.Add(float64(delta))
}

// # HTTP Instrumentation

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (writer *statusWriter) WriteHeader(code int) {
	writer.status = code
	writer.ResponseWriter.WriteHeader(code)
}

func (writer *statusWriter) Flush() {
	if flusher, ok := writer.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (writer *statusWriter) Unwrap() http.ResponseWriter {
	return writer.ResponseWriter
}

// Instrument records request count and latency labelled with the chi route pattern,
// so path parameters never explode label cardinality.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, status: http.StatusOK}

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		r.httpRequests.WithLabelValues(request.Method, route, strconv.Itoa(recorder.status)).Inc()
		r.httpDuration.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}
