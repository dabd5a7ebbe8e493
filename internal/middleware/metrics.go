package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reportSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_submissions_total",
			Help: "Total number of report submissions by outcome",
		},
		[]string{"outcome", "location_match"},
	)

	imageUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_image_upload_bytes",
			Help:    "Size of accepted report images",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"action"},
	)

	stagingSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_staging_swept_total",
			Help: "Orphaned staged uploads removed by the sweeper",
		},
	)
)

// MetricsMiddleware collects Prometheus metrics for HTTP requests.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		// Route pattern, so /api/admin/reports/:id is one series.
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// Submission outcomes
const (
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// RecordReportSubmission counts a submission. matched is false for reports
// outside every location and for submissions that never got matched.
func RecordReportSubmission(outcome string, matched bool) {
	reportSubmissionsTotal.WithLabelValues(outcome, strconv.FormatBool(matched)).Inc()
}

func RecordImageUpload(size int64) {
	imageUploadBytes.Observe(float64(size))
}

func RecordStagingSweep(removed int) {
	stagingSweptTotal.Add(float64(removed))
}
