package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DedupeLookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedupe_lookups_total",
		Help: "The total number of dedupe membership checks performed",
	})
	DedupeHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedupe_hits_total",
		Help: "The total number of keys reported as already seen",
	})
	DedupeAdds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedupe_adds_total",
		Help: "The total number of keys added to the filter",
	})
	DedupeKeyExtractFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedupe_key_extract_failures_total",
		Help: "The total number of events the configured key_path could not be extracted from",
	})

	FilterNonzeroCells = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dedupe_filter_nonzero_cells",
		Help: "Current nonzero cell count across all tiers",
	})
	FilterSizeEstimate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dedupe_filter_size_estimate",
		Help: "Estimated number of distinct keys currently tracked",
	})
	FilterTierCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dedupe_filter_tier_count",
		Help: "Current number of scaling tiers",
	})
	FilterExpectedError = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dedupe_filter_expected_error",
		Help: "Compound false-positive error rate across all tiers",
	})

	DecaySweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedupe_decay_sweeps_total",
		Help: "The total number of decay sweeps run",
	})
	DecaySweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dedupe_decay_sweep_duration_seconds",
		Help:    "Duration of a decay sweep across all tiers",
		Buckets: []float64{.0001, .001, .01, .1, .5, 1, 5},
	})

	ConsumeMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedupe_consume_messages_total",
		Help: "The total number of Kafka messages consumed",
	}, []string{"topic"})
	ConsumeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedupe_consume_errors_total",
		Help: "The total number of errors handling a consumed message",
	}, []string{"topic", "reason"})

	RestapiTimes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dedupe_restapi_time_seconds",
		Help:    "Duration of restapi processing",
		Buckets: []float64{.005, .01, .025, .050, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})
	RestapiCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedupe_restapi_response_codes",
		Help: "The response codes for restapi endpoints",
	}, []string{"method", "path", "code"})
)
