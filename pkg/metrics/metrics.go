// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsTotal tracks deduplication runs by status
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "dedup",
			Name:      "detections_total",
			Help:      "Total number of duplicate detection runs by status",
		},
		[]string{"status"},
	)

	// DetectionDuration tracks detection run duration in seconds
	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "dedup",
			Name:      "detection_duration_seconds",
			Help:      "Duration of duplicate detection runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// CandidatesScored tracks candidate listings scored per detection run
	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "dedup",
			Name:      "candidates_scored_total",
			Help:      "Total number of candidate listings scored",
		},
	)

	// DuplicatesFound tracks detected duplicate pairs by confidence tier
	DuplicatesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "dedup",
			Name:      "duplicates_found_total",
			Help:      "Total number of duplicate pairs detected by confidence tier",
		},
		[]string{"confidence"},
	)

	// ReviewItemsCreated tracks review items opened for ambiguous matches
	ReviewItemsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "review",
			Name:      "items_created_total",
			Help:      "Total number of manual review items created",
		},
	)

	// ReviewResolutions tracks review resolutions by decision
	ReviewResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "review",
			Name:      "resolutions_total",
			Help:      "Total number of review items resolved by decision",
		},
		[]string{"decision"},
	)

	// ImageHashesComputed tracks perceptual hashes computed from fetched images
	ImageHashesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "phash",
			Name:      "hashes_computed_total",
			Help:      "Total number of perceptual image hashes computed by status",
		},
		[]string{"status"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordDetection records a detection run outcome and its duration
func RecordDetection(status string, durationSeconds float64) {
	DetectionsTotal.WithLabelValues(status).Inc()
	DetectionDuration.Observe(durationSeconds)
}

// RecordDuplicate records a detected duplicate pair by confidence tier
func RecordDuplicate(confidence string) {
	DuplicatesFound.WithLabelValues(confidence).Inc()
}

// RecordReviewResolution records a review resolution by decision
func RecordReviewResolution(decision string) {
	ReviewResolutions.WithLabelValues(decision).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
