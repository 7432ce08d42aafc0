// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"database/sql"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_cache_requests_total",
			Help: "Event cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	WaitlistNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_waitlist_notifications_total",
			Help: "Waitlist spot emails by outcome (sent, failed)",
		},
		[]string{"outcome"},
	)

	JanitorRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_janitor_removed_total",
			Help: "Rows cleaned up by the janitor by kind",
		},
		[]string{"kind"},
	)
)

// RegisterDBStats exposes sql.DB pool statistics under the given database name.
// Registering the same name twice is not an error.
func RegisterDBStats(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var are prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &are) {
		return err
	}
	return nil
}
