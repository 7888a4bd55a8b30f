package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrm_store_operations_total",
			Help: "Document store operations by collection, operation and outcome.",
		},
		[]string{"collection", "op", "outcome"},
	)

	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrm_store_operation_duration_seconds",
			Help:    "Document store operation latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "op"},
	)

	SequenceRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrm_sequence_retries_total",
			Help: "Retried increment attempts per sequence name.",
		},
		[]string{"sequence"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrm_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrm_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

var (
	registry     = prometheus.NewRegistry()
	registerOnce sync.Once
)

// Registry returns the registry holding every collector of this package.
func Registry() *prometheus.Registry {
	registerOnce.Do(func() {
		registry.MustRegister(
			StoreOperations, StoreLatency, SequenceRetries,
			httpRequests, httpDuration,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return registry
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveStore records one store call that started at start.
func ObserveStore(collection, op string, start time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	StoreOperations.WithLabelValues(collection, op, outcome).Inc()
	StoreLatency.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// GinMiddleware labels requests by route template so ids do not explode
// cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
