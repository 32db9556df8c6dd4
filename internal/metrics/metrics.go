// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IrradianceAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarroi_irradiance_api_calls_total",
			Help: "Total irradiance API calls by outcome",
		},
		[]string{"status"},
	)

	IrradianceAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solarroi_irradiance_api_latency_seconds",
			Help:    "Irradiance API call latency in seconds, retries included",
			Buckets: prometheus.DefBuckets,
		},
	)

	IrradianceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarroi_irradiance_lookups_total",
			Help: "Irradiance readings served by source (live, cached, fallback)",
		},
		[]string{"source"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarroi_stage_duration_seconds",
			Help:    "Per-item pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarroi_batch_items_total",
			Help: "Batch items processed by outcome",
		},
		[]string{"outcome"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solarroi_batch_duration_seconds",
			Help:    "Total batch elapsed time in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarroi_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "status"},
	)

	HTTPPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarroi_http_panics_total",
			Help: "Handler panics recovered, by route pattern",
		},
		[]string{"route"},
	)
)
