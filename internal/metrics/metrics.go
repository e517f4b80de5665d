// Package metrics records batch match metrics in a private Prometheus
// registry and writes them as a node-exporter textfile after each run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"barfinder/internal/battles"
	"barfinder/internal/matching"
)

const namespace = "barfinder"

// Recorder collects the metrics of one process.
type Recorder struct {
	registry *prometheus.Registry

	screenshots   *prometheus.CounterVec
	scores        prometheus.Histogram
	videos        *prometheus.CounterVec
	videoDuration prometheus.Histogram

	indexBattles  prometheus.Gauge
	indexPlayers  prometheus.Gauge
	indexOrphans  prometheus.Gauge
	indexDuration prometheus.Gauge

	runDuration    prometheus.Gauge
	commitDuration prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)
	r := &Recorder{registry: registry}

	r.screenshots = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "match",
		Name:      "screenshots_total",
		Help:      "Screenshots evaluated, by match outcome.",
	}, []string{"outcome"})
	for _, outcome := range matching.Outcomes {
		r.screenshots.WithLabelValues(string(outcome))
	}

	r.scores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "match",
		Name:      "best_score",
		Help:      "Best token-set score of screenshots that reached scoring.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	r.videos = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "match",
		Name:      "videos_total",
		Help:      "Videos processed, by task status.",
	}, []string{"status"})
	r.videos.WithLabelValues("ok")
	r.videos.WithLabelValues("failed")

	r.videoDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "match",
		Name:      "video_duration_seconds",
		Help:      "Time spent matching all screenshots of one video.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	r.indexBattles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "battles",
		Help:      "Battles in the participation index.",
	})
	r.indexPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "players",
		Help:      "Distinct player names in the participation index.",
	})
	r.indexOrphans = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "orphan_participations",
		Help:      "Participation rows referencing a battle missing from the battles table.",
	})
	r.indexDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "build_duration_seconds",
		Help:      "Time spent loading and indexing battles.",
	})

	r.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "duration_seconds",
		Help:      "Wall time of the matching phase of the last run.",
	})
	r.commitDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "commit_duration_seconds",
		Help:      "Time spent committing the last run's results.",
	})
	r.lastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "run",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last fully committed run.",
	})
	return r
}

// ObserveScreenshot counts a screenshot verdict.
func (r *Recorder) ObserveScreenshot(match matching.Match) {
	r.screenshots.WithLabelValues(string(match.Outcome)).Inc()
	switch match.Outcome {
	case matching.OutcomeMatched, matching.OutcomeBelowThreshold:
		r.scores.Observe(match.Score)
	}
}

// ObserveVideo counts a finished video task.
func (r *Recorder) ObserveVideo(failed bool, duration time.Duration) {
	status := "ok"
	if failed {
		status = "failed"
	}
	r.videos.WithLabelValues(status).Inc()
	r.videoDuration.Observe(duration.Seconds())
}

// ObserveIndex records the shape of the built index.
func (r *Recorder) ObserveIndex(stats battles.Stats, duration time.Duration) {
	r.indexBattles.Set(float64(stats.Battles))
	r.indexPlayers.Set(float64(stats.Players))
	r.indexOrphans.Set(float64(stats.OrphanParticipations))
	r.indexDuration.Set(duration.Seconds())
}

// ObserveRun records the matching phase duration.
func (r *Recorder) ObserveRun(duration time.Duration) {
	r.runDuration.Set(duration.Seconds())
}

// ObserveCommit records a successful commit.
func (r *Recorder) ObserveCommit(duration time.Duration, at time.Time) {
	r.commitDuration.Set(duration.Seconds())
	r.lastSuccess.Set(float64(at.Unix()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in text exposition format. An
// empty path disables output.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
