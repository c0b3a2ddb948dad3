package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StatusClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizregistry_status_classifications_total",
			Help: "Raw moderation statuses classified, by canonical status",
		},
		[]string{"status"},
	)

	ImageValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizregistry_image_validations_total",
			Help: "Images validated before upload, by slot and outcome",
		},
		[]string{"slot", "outcome"},
	)

	ImageValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizregistry_image_validation_duration_seconds",
			Help:    "Time spent validating one image",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"slot"},
	)

	ScreeningVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizregistry_image_screening_verdicts_total",
			Help: "Content screening verdicts for uploaded photos",
		},
		[]string{"verdict"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizregistry_submissions_total",
			Help: "Business edit submissions, by request shape and outcome",
		},
		[]string{"shape", "outcome"},
	)

	RegistryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizregistry_api_requests_total",
			Help: "Registry API calls, by operation and error kind",
		},
		[]string{"operation", "result"},
	)

	RegistryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizregistry_api_request_duration_seconds",
			Help:    "Registry API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bizregistry_edit_sessions_active",
			Help: "Edit sessions currently open",
		},
	)
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
