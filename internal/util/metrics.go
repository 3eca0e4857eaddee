package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Purchase results used as label values.
const (
	ResultSuccess           = "success"
	ResultNotFound          = "not_found"
	ResultInvalidQuantity   = "invalid_quantity"
	ResultInvalidBuyer      = "invalid_buyer"
	ResultInsufficientCheck = "insufficient_stock_checked"
	ResultInsufficientRace  = "insufficient_stock_race"
	ResultError             = "error"
)

var (
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Total number of purchase attempts by result",
	}, []string{"result"})

	UnitsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "units_sold_total",
		Help: "Total number of units decremented by successful purchases",
	})

	ConditionalDecrementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conditional_decrement_latency_seconds",
		Help:    "Latency of the conditional stock decrement",
		Buckets: prometheus.DefBuckets,
	})

	JournalWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_write_failures_total",
		Help: "Orders that could not be journaled after a committed decrement",
	})

	ItemWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "item_admin_writes_total",
		Help: "Administrative item writes by operation",
	}, []string{"op"})

	ItemCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "item_cache_lookups_total",
		Help: "Item snapshot cache lookups by outcome",
	}, []string{"outcome"})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_publish_failed_total",
		Help: "Inventory events that could not be published",
	}, []string{"event_type"})

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
