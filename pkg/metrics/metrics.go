package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	eventOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_event_operations_total",
			Help: "Event service operations by outcome",
		},
		[]string{"operation", "result"},
	)

	eventCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_event_cache_total",
			Help: "Event list cache lookups",
		},
		[]string{"result"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_rate_limited_total",
			Help: "Requests rejected with 429, by limiter",
		},
		[]string{"limit"},
	)
)

// Operation outcomes recorded by TrackEventOperation.
const (
	ResultOK        = "ok"
	ResultInvalid   = "invalid"
	ResultForbidden = "forbidden"
	ResultNotFound  = "not_found"
	ResultError     = "error"
)

// TrackHTTP records one served request. route is the matched pattern, not the raw path.
func TrackHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func TrackEventOperation(operation, result string) {
	eventOperations.WithLabelValues(operation, result).Inc()
}

func TrackCache(hit bool) {
	if hit {
		eventCache.WithLabelValues("hit").Inc()
		return
	}
	eventCache.WithLabelValues("miss").Inc()
}

// TrackRateLimited counts a request the named limiter rejected.
func TrackRateLimited(limit string) {
	rateLimited.WithLabelValues(limit).Inc()
}
