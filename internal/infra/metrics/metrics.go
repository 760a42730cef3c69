package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	codesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activation_codes_created_total",
			Help: "Count of activation codes created.",
		},
	)

	codesVerified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activation_codes_verified_total",
			Help: "Count of successful redemptions.",
		},
	)

	verifyRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_codes_verify_rejected_total",
			Help: "Count of rejected redemptions by reason (already_used/expired/not_found/error).",
		},
		[]string{"reason"},
	)

	codesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_codes_deleted_total",
			Help: "Count of deleted codes by origin (single/cleanup_expired/cleanup_unused).",
		},
		[]string{"origin"},
	)

	cleanupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_codes_cleanup_runs_total",
			Help: "Background cleanup sweeps by kind and success.",
		},
		[]string{"kind", "success"},
	)

	httpLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_latency_ms",
			Help:    "API request latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"route", "method", "status"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			codesCreated, codesVerified, verifyRejected,
			codesDeleted, cleanupRuns, httpLatencyMs,
		)
	})
}

func IncCodesCreated()  { codesCreated.Inc() }
func IncCodesVerified() { codesVerified.Inc() }

func IncVerifyRejected(reason string) {
	verifyRejected.WithLabelValues(reason).Inc()
}

func IncCodesDeleted(n int, origin string) {
	if n > 0 {
		codesDeleted.WithLabelValues(origin).Add(float64(n))
	}
}

func IncCleanupRun(kind string, success bool) {
	cleanupRuns.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

func ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	httpLatencyMs.WithLabelValues(route, method, strconv.Itoa(status)).
		Observe(float64(elapsed.Milliseconds()))
}
