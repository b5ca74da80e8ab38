package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Triage metrics
	assessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_assessments_total",
			Help: "Total number of symptom assessments by action tier",
		},
		[]string{"tier"},
	)

	severityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_severity_score",
			Help:    "Distribution of computed severity scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	facilityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facility_lookups_total",
			Help: "Total number of facility lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	facilityLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "facility_lookup_duration_seconds",
			Help:    "Facility source lookup duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	advisorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_calls_total",
			Help: "Total number of narrative advisor calls by outcome",
		},
		[]string{"outcome"},
	)

	feedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultation_feedback_total",
			Help: "Total number of feedback submissions by type",
		},
		[]string{"type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one finished HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncInFlight() { httpRequestsInFlight.Inc() }
func DecInFlight() { httpRequestsInFlight.Dec() }

// RecordAssessment records a completed assessment
func RecordAssessment(tier string, score int) {
	assessmentsTotal.WithLabelValues(tier).Inc()
	severityScores.Observe(float64(score))
}

// RecordFacilityLookup records one source attempt. outcome is "hit", "empty" or "error".
func RecordFacilityLookup(source, outcome string, duration time.Duration) {
	facilityLookups.WithLabelValues(source, outcome).Inc()
	facilityLookupDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordAdvisorCall records a narrative request outcome
func RecordAdvisorCall(outcome string) {
	advisorCalls.WithLabelValues(outcome).Inc()
}

// RecordFeedback records a feedback submission
func RecordFeedback(feedbackType string) {
	feedbackTotal.WithLabelValues(feedbackType).Inc()
}
