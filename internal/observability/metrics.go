package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "poolparty", Name: "geocode_requests_total", Help: "Geocoding attempts by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "poolparty", Name: "route_requests_total", Help: "Routing attempts by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	ETAResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "poolparty", Name: "eta_resolutions_total", Help: "ETA resolutions by source"},
		[]string{"source"},
	)
	ETAFlagged = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "poolparty", Name: "eta_flagged_total", Help: "Resolutions flagged as suspicious"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "poolparty", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poolparty",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
