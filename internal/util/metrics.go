package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op"})

	CartEntriesPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_entries_pruned_total",
		Help: "Total number of cart entries dropped because the product left the catalog",
	})

	FavoriteTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_favorite_toggles_total",
		Help: "Total number of favorite toggles",
	}, []string{"action"})

	FavoritesMergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_favorites_merges_total",
		Help: "Total number of sign-in favorites merges",
	}, []string{"result"})

	FavoritesSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_favorites_sync_total",
		Help: "Total number of remote favorites writes",
	}, []string{"result"})

	LocalPersistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_local_persist_failures_total",
		Help: "Total number of failed writes to the session store",
	}, []string{"record"})

	CouponLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupon_lookups_total",
		Help: "Total number of coupon lookups",
	}, []string{"result"})

	AssistantRepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_assistant_replies_total",
		Help: "Total number of assistant replies",
	}, []string{"intent"})

	CheckoutsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkouts_started_total",
		Help: "Total number of checkout handoffs",
	})

	SignInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sign_ins_total",
		Help: "Total number of sign-in attempts",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_sessions",
		Help: "Number of sessions held in memory",
	})

	CatalogFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_catalog_fetch_latency_seconds",
		Help:    "Latency of full catalog fetches",
		Buckets: prometheus.DefBuckets,
	})

	CatalogFetchFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_catalog_fetch_failed_total",
		Help: "Total number of failed catalog fetches",
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
