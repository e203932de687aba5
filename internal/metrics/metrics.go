package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results.
const (
	CacheHit    = "hit"
	CacheMirror = "mirror"
	CacheMiss   = "miss"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	giftCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftgate",
			Subsystem: "gift_cache",
			Name:      "lookups_total",
			Help:      "Gift metadata lookups by result (hit, mirror, miss).",
		},
		[]string{"result"},
	)

	pageFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftgate",
			Subsystem: "page",
			Name:      "fetches_total",
			Help:      "Outbound gift page fetches by outcome.",
		},
		[]string{"outcome"},
	)

	identityLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftgate",
			Subsystem: "identity",
			Name:      "lookups_total",
			Help:      "Handle to account id lookups by outcome.",
		},
		[]string{"outcome"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftgate",
			Name:      "verifications_total",
			Help:      "Ownership verifications by result (owned or error kind).",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "giftgate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "giftgate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		giftCacheLookups,
		pageFetches,
		identityLookups,
		verifications,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveCacheLookup(result string) { giftCacheLookups.WithLabelValues(result).Inc() }

func ObservePageFetch(err error) { pageFetches.WithLabelValues(outcome(err)).Inc() }

func ObserveIdentityLookup(err error) { identityLookups.WithLabelValues(outcome(err)).Inc() }

// ObserveVerification records a verdict; result is "owned" or an error kind.
func ObserveVerification(result string) { verifications.WithLabelValues(result).Inc() }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// InstrumentHandler wraps the router with HTTP metrics collection. Routes are
// labelled by their chi pattern to keep cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
