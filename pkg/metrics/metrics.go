package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "referral",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "referral",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral",
			Subsystem: "applications",
			Name:      "events_total",
			Help:      "Application lifecycle events by outcome.",
		},
		[]string{"event"},
	)

	tokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral",
			Subsystem: "ledger",
			Name:      "tokens_total",
			Help:      "Tokens debited and credited.",
		},
		[]string{"direction"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral",
			Subsystem: "payments",
			Name:      "verifications_total",
			Help:      "Payment verification outcomes.",
		},
		[]string{"outcome"},
	)

	forwards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral",
			Subsystem: "forwards",
			Name:      "deliveries_total",
			Help:      "Referral email forward deliveries by status.",
		},
		[]string{"status"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral",
			Subsystem: "verification",
			Name:      "decisions_total",
			Help:      "Employment verification decisions.",
		},
		[]string{"status"},
	)

	externalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "referral",
			Subsystem: "external",
			Name:      "call_duration_seconds",
			Help:      "Duration of calls to external providers.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applications,
		tokens,
		payments,
		forwards,
		verifications,
		externalDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordApplicationEvent counts lifecycle events such as applied, accepted, rejected, referred.
func RecordApplicationEvent(event string) {
	applications.WithLabelValues(event).Inc()
}

func RecordTokensDebited(n int) {
	tokens.WithLabelValues("debit").Add(float64(n))
}

func RecordTokensCredited(n int) {
	tokens.WithLabelValues("credit").Add(float64(n))
}

// RecordPaymentVerification counts outcomes: credited, already_processed, invalid_signature, error.
func RecordPaymentVerification(outcome string) {
	payments.WithLabelValues(outcome).Inc()
}

func RecordForward(status string) {
	forwards.WithLabelValues(status).Inc()
}

func RecordVerificationDecision(status string) {
	verifications.WithLabelValues(status).Inc()
}

// ObserveExternalCall times a call to an external provider.
func ObserveExternalCall(provider string, start time.Time, err error) {
	externalDuration.WithLabelValues(provider, strconv.FormatBool(err == nil)).Observe(time.Since(start).Seconds())
}
