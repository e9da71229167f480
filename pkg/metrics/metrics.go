package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestCounter counts processed HTTP requests.
	HTTPRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkcard_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// UploadCounter counts media uploads by kind (avatar, background) and result.
	UploadCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_uploads_total",
			Help: "Total number of media uploads by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// CleanupObjects counts objects seen by the cleanup sweep by outcome.
	CleanupObjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_cleanup_objects_total",
			Help: "Objects inspected by the cleanup sweep, by outcome.",
		},
		[]string{"outcome"}, // deleted, referenced, too_recent, failed
	)

	// CleanupRuns counts completed sweeps by result.
	CleanupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_cleanup_runs_total",
			Help: "Completed cleanup sweeps by result.",
		},
		[]string{"result"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkcard_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by route.",
		},
		[]string{"path"},
	)

	// AppInfo exposes the running version.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkcard_app_info",
			Help: "Information about the LinkCard backend.",
		},
		[]string{"version"},
	)
)

// SetAppVersion publishes the version label. An empty version falls back to APP_VERSION.
func SetAppVersion(version string) {
	if version == "" {
		version = os.Getenv("APP_VERSION")
	}
	if version == "" {
		version = "unknown"
	}
	AppInfo.With(prometheus.Labels{"version": version}).Set(1)
}
