// Package observability holds the service's Prometheus collectors and the
// helpers that record into them.
package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var backendLabel atomic.Value

func init() {
	backendLabel.Store("hex")
}

// SetBackend sets the grid backend label attached to every series.
func SetBackend(s string) {
	if s == "" {
		s = "hex"
	}
	backendLabel.Store(s)
}

func getBackend() string {
	if v := backendLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "hex"
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status", "backend"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status", "backend"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proximity_queries_total",
			Help: "Proximity queries by outcome (ok or error kind).",
		},
		[]string{"outcome", "backend"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proximity_query_duration_seconds",
			Help:    "Duration of proximity queries in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		},
		[]string{"backend"},
	)

	ringCells = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proximity_ring_cells",
			Help:    "Number of cells in the ring set of a query.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"backend"},
	)

	candidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proximity_candidates",
			Help:    "Candidate entities per query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"backend"},
	)

	matched = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proximity_matched_entities",
			Help:    "Entities found nearby per query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"backend"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome", "backend"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of Redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op", "status"},
	)

	hotOrigins = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hot_origins",
			Help: "Number of origin cells tracked by the hotness model.",
		},
		[]string{"tier", "backend"},
	)

	queryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_events_total",
			Help: "Query events by result (published, dropped, error).",
		},
		[]string{"result"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		queriesTotal, queryDurationSeconds, ringCells, candidates, matched,
		cacheResults, redisOpDuration, hotOrigins, queryEvents,
	}
}

// Init registers the collectors with reg. Registering twice with the same
// registry is a no-op.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	b := getBackend()
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st, b).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st, b).Observe(durationSeconds)
}

// ObserveQuery records one proximity query. outcome is "ok" or an error kind.
func ObserveQuery(outcome string, durationSeconds float64) {
	b := getBackend()
	queriesTotal.WithLabelValues(outcome, b).Inc()
	queryDurationSeconds.WithLabelValues(b).Observe(durationSeconds)
}

func ObserveQuerySizes(ringSize, candidateCount, matchedCount int) {
	b := getBackend()
	ringCells.WithLabelValues(b).Observe(float64(ringSize))
	candidates.WithLabelValues(b).Observe(float64(candidateCount))
	matched.WithLabelValues(b).Observe(float64(matchedCount))
}

func IncCacheHit(tier string)   { addCache(tier, "hit", 1) }
func IncCacheMiss(tier string)  { addCache(tier, "miss", 1) }
func IncCacheError(tier string) { addCache(tier, "error", 1) }

func AddCacheHits(tier string, n int)   { addCache(tier, "hit", n) }
func AddCacheMisses(tier string, n int) { addCache(tier, "miss", n) }

func addCache(tier, outcome string, n int) {
	if n <= 0 {
		return
	}
	cacheResults.WithLabelValues(tier, outcome, getBackend()).Add(float64(n))
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	redisOpDuration.WithLabelValues(op, status).Observe(durationSeconds)
}

func SetHotKeysGauge(tier string, n int) {
	hotOrigins.WithLabelValues(tier, getBackend()).Set(float64(n))
}

func IncQueryEvent(result string) {
	queryEvents.WithLabelValues(result).Inc()
}
