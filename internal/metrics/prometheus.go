package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FingerprintsComputed counts SimHash fingerprints computed.
	FingerprintsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_fingerprints_computed_total",
			Help: "Total number of SimHash fingerprints computed",
		},
	)

	// DuplicatesDetected counts item-level duplicate verdicts by workflow.
	DuplicatesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_duplicates_detected_total",
			Help: "Total number of duplicate questions detected",
		},
		[]string{"workflow"},
	)

	// UploadsRejected counts content-level upload conflicts.
	UploadsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_uploads_rejected_total",
			Help: "Total number of uploads rejected as payload repeats",
		},
	)
)

// InitPrometheus registers the dedup metrics with the default registry.
func InitPrometheus() {
	prometheus.MustRegister(FingerprintsComputed)
	prometheus.MustRegister(DuplicatesDetected)
	prometheus.MustRegister(UploadsRejected)
}
