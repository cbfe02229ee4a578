// Package metrics exposes Prometheus instrumentation for the cache
// service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: cache lookups by outcome ("redis", "postgres", "local",
	// "miss").
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcache_lookups_total",
			Help: "Total translation cache lookups by serving tier.",
		},
		[]string{"tier"},
	)

	// Counter: words translated live through the upstream provider.
	ProviderTranslationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transcache_provider_translations_total",
			Help: "Total words translated by the upstream provider on cache miss.",
		},
	)

	// Histogram: HTTP latency in seconds.
	RequestLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcache_request_latency_seconds",
			Help:    "HTTP request latency for the cache service in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		LookupsTotal,
		ProviderTranslationsTotal,
		RequestLatencySeconds,
	)
}

// ObserveLookup records the outcome of one cache lookup. An empty tier
// means a full miss.
func ObserveLookup(tier string) {
	if tier == "" {
		tier = "miss"
	}
	LookupsTotal.WithLabelValues(tier).Inc()
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures latency for each HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		RequestLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
