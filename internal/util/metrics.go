package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LocalityResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locality_resolutions_total",
		Help: "Total locality resolutions by method",
	}, []string{"method"})

	LocalityResolutionsAmbiguous = promauto.NewCounter(prometheus.CounterOpts{
		Name: "locality_resolutions_ambiguous_total",
		Help: "Resolutions suspended for address disambiguation",
	})

	LocalityResolutionsUnresolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "locality_resolutions_unresolved_total",
		Help: "Resolutions that ended in the unresolved state",
	})

	DetectRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "detect_request_latency_seconds",
		Help:    "Latency of detect-locality upstream calls",
		Buckets: prometheus.DefBuckets,
	})

	PricesResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prices_resolved_total",
		Help: "Total variant price lookups that found a valid entry",
	})

	PricesMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prices_missing_total",
		Help: "Total variant price lookups that resolved to no price",
	})

	PromotionsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promotions_applied_total",
		Help: "Total promotions applied by type",
	}, []string{"type"})

	CombosAssembledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combos_assembled_total",
		Help: "Total combos assembled with every item resolved",
	})

	CombosIncompleteTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combos_incomplete_total",
		Help: "Total combos rendered as partial/manual bundles",
	})

	ZonesMisconfiguredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zones_misconfigured_total",
		Help: "Zone localities with third-party transport set but no shipping price",
	})

	DistributionRevertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distribution_reverts_total",
		Help: "Optimistic distribution edits rolled back after a failed persist",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
