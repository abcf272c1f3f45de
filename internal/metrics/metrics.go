package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Frame scanning metrics
	framesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lecturedeck_frames_decoded_total",
		Help: "Total frames read from video sources",
	})

	framesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lecturedeck_frames_sampled_total",
		Help: "Total frames compared against their predecessor",
	})

	boundariesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lecturedeck_boundaries_detected_total",
		Help: "Raw boundaries emitted by the stability window, before post-processing",
	})

	boundariesEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lecturedeck_boundaries_emitted_total",
		Help: "Boundaries returned after post-processing",
	})

	boundariesFilteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecturedeck_boundaries_filtered_total",
		Help: "Boundaries removed during post-processing by stage",
	}, []string{"stage"})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lecturedeck_minimum_fallbacks_total",
		Help: "Scans that fell back to the synthesized start/midpoint pair",
	})

	// Alignment metrics
	segmentsAlignedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecturedeck_segments_aligned_total",
		Help: "Transcript segments produced, by how the cut position was found",
	}, []string{"snap"})

	// Pipeline metrics
	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lecturedeck_pipeline_duration_seconds",
		Help:    "Duration of pipeline stages in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5m
	}, []string{"stage"})

	pipelineErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lecturedeck_pipeline_errors_total",
		Help: "Pipeline failures by stage",
	}, []string{"stage"})
)

// AddFramesDecoded records frames pulled from a source
func AddFramesDecoded(n int) {
	framesDecodedTotal.Add(float64(n))
}

// AddFramesSampled records frames that went through the differ
func AddFramesSampled(n int) {
	framesSampledTotal.Add(float64(n))
}

// RecordBoundaries records raw detections and the final count of a scan
func RecordBoundaries(detected, emitted int) {
	boundariesDetectedTotal.Add(float64(detected))
	boundariesEmittedTotal.Add(float64(emitted))
}

// AddFiltered records boundaries dropped by a post-processing stage
func AddFiltered(stage string, n int) {
	if n <= 0 {
		return
	}
	boundariesFilteredTotal.WithLabelValues(stage).Add(float64(n))
}

// IncrementFallback counts a synthesized minimum pair
func IncrementFallback() {
	fallbacksTotal.Inc()
}

// IncrementSegmentAligned counts one aligned segment. snap is "bounded",
// "unbounded", "estimate" or "fallback".
func IncrementSegmentAligned(snap string) {
	segmentsAlignedTotal.WithLabelValues(snap).Inc()
}

// ObserveStage records how long a pipeline stage took
func ObserveStage(stage string, d time.Duration) {
	pipelineDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncrementPipelineError counts a failed stage
func IncrementPipelineError(stage string) {
	pipelineErrorsTotal.WithLabelValues(stage).Inc()
}

// WriteTextfile dumps the default registry in Prometheus text format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
