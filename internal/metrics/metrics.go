// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package metrics provides Prometheus instrumentation for Savora.
//
// Covered surfaces:
//   - HTTP endpoint latency and throughput
//   - Recommendation pipeline stage latency
//   - LLM re-ranking outcomes and circuit breaker state
//   - Response cache efficiency
//   - Catalog size
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "savora_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savora_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Recommendation pipeline metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savora_recommendation_requests_total",
			Help: "Total number of recommendation requests by result",
		},
		[]string{"result"}, // "ok", "validation_error", "empty"
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "savora_pipeline_stage_duration_seconds",
			Help:    "Duration of recommendation pipeline stages in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"}, // "filter", "score", "rerank", "assemble"
	)

	// LLM re-ranking metrics
	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savora_llm_calls_total",
			Help: "Total number of LLM re-ranking attempts by outcome",
		},
		[]string{"outcome"}, // "success", "transport_failure", "validation_failure", "breaker_open"
	)

	LLMCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "savora_llm_call_duration_seconds",
			Help:    "Duration of LLM re-ranking calls in seconds",
			Buckets: []float64{.1, .25, .5, 1, 1.5, 2, 3, 5, 10},
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "savora_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savora_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	// Response cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "savora_response_cache_hits_total",
			Help: "Total number of recommendation response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "savora_response_cache_misses_total",
			Help: "Total number of recommendation response cache misses",
		},
	)

	// Catalog metrics
	CatalogRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "savora_catalog_records",
			Help: "Number of restaurant records in the loaded catalog snapshot",
		},
	)
)

// ObserveHTTPRequest records metrics for a completed HTTP request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveStage records the latency of a pipeline stage.
func ObserveStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}
