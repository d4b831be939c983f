package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts analysis requests by outcome. The label values
	// are "ok" or the analysis error code (e.g. "provider_blocked").
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoadvisor",
		Subsystem: "service",
		Name:      "analyses_total",
		Help:      "Total number of analysis requests, labeled by result.",
	}, []string{"result"})

	// AnalysisDurationSeconds is end-to-end time per analysis, including the
	// provider round trip.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecoadvisor",
		Subsystem: "service",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time to analyze an uploaded image (provider call + sectioning).",
		// Keep buckets fairly coarse to avoid high-cardinality time series.
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"result"})

	// ProviderErrorsTotal counts provider-side failures by error code.
	ProviderErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoadvisor",
		Subsystem: "service",
		Name:      "provider_errors_total",
		Help:      "Total number of LLM provider failures, labeled by error code.",
	}, []string{"code"})

	// UploadBytes tracks uploaded image sizes.
	UploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ecoadvisor",
		Subsystem: "service",
		Name:      "upload_bytes",
		Help:      "Size distribution of uploaded images in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			ProviderErrorsTotal,
			UploadBytes,
		)
	})
}
