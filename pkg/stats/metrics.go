package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Valuations counts valuation requests, labeled by whether they were
	// served from cache.
	Valuations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barterd",
		Name:      "valuations_total",
		Help:      "Number of valuations served.",
	}, []string{"cached"})

	// PricedItems counts the items priced by each tier of the waterfall.
	PricedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barterd",
		Name:      "priced_items_total",
		Help:      "Number of items priced, by source tier.",
	}, []string{"source"})

	// ProviderFailures counts failed calls to external price providers.
	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barterd",
		Name:      "provider_failures_total",
		Help:      "Number of failed calls to external price providers.",
	}, []string{"provider"})

	// EventsPublished counts the events published to the event bus.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barterd",
		Name:      "events_published_total",
		Help:      "Number of events published, by type.",
	}, []string{"type"})

	// EventsDropped counts the events not delivered to slow clients.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "barterd",
		Name:      "events_dropped_total",
		Help:      "Number of events dropped because of full client buffers.",
	})

	// ConnectedClients is the number of open realtime connections.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "barterd",
		Name:      "connected_clients",
		Help:      "Number of connected realtime clients.",
	})

	// HTTPRequests observes the latency of the HTTP endpoints.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "barterd",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)
