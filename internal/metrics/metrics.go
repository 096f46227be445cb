// Package metrics counts repository builds with Prometheus collectors and
// writes them in the text exposition format for the node exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zjrosen/clsforge/internal/builder"
	"github.com/zjrosen/clsforge/internal/cachemanager"
	"github.com/zjrosen/clsforge/internal/log"
)

const namespace = "clsforge"

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder implements builder.Recorder on a private registry.
type Recorder struct {
	registry       *prometheus.Registry
	builds         *prometheus.CounterVec
	parts          *prometheus.CounterVec
	configurations *prometheus.CounterVec
	entries        *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	substitutes    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	lastSuccess    *prometheus.GaugeVec
	cacheLookups   *prometheus.GaugeVec
}

var _ builder.Recorder = (*Recorder)(nil)

// NewRecorder registers the build collectors on a fresh registry.
func NewRecorder() *Recorder {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      name,
			Help:      help,
		}, labels)
	}
	r := &Recorder{
		registry:       prometheus.NewRegistry(),
		builds:         counter("builds_total", "Repository builds by outcome.", "project", "outcome"),
		parts:          counter("parts_total", "Parts processed.", "project"),
		configurations: counter("configurations_total", "Configurations encoded into the repository.", "project"),
		entries:        counter("entries_total", "Repository entries created, markers included.", "project"),
		skipped:        counter("skipped_blacklisted_total", "Configurations left out because they provide a blacklisted type.", "project"),
		substitutes:    counter("substitutes_total", "Connector markers inserted for blacklisted required slots.", "project"),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "build_duration_seconds",
			Help:      "Wall time of a project build.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"project"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}, []string{"project"}),
		cacheLookups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups",
			Help:      "Read-through cache lookups since start, by cache and result.",
		}, []string{"cache", "result"}),
	}
	r.registry.MustRegister(
		r.builds, r.parts, r.configurations, r.entries, r.skipped, r.substitutes, r.duration, r.lastSuccess,
		r.cacheLookups,
	)
	return r
}

// RecordBuild implements builder.Recorder.
func (r *Recorder) RecordBuild(projectID string, stats builder.Stats, elapsed time.Duration, err error) {
	r.duration.WithLabelValues(projectID).Observe(elapsed.Seconds())
	if err != nil {
		r.builds.WithLabelValues(projectID, OutcomeError).Inc()
		return
	}
	r.builds.WithLabelValues(projectID, OutcomeSuccess).Inc()
	r.parts.WithLabelValues(projectID).Add(float64(stats.Parts))
	r.configurations.WithLabelValues(projectID).Add(float64(stats.Configurations))
	r.entries.WithLabelValues(projectID).Add(float64(stats.Entries))
	r.skipped.WithLabelValues(projectID).Add(float64(stats.SkippedBlacklisted))
	r.substitutes.WithLabelValues(projectID).Add(float64(stats.Substitutes))
	r.lastSuccess.WithLabelValues(projectID).SetToCurrentTime()
}

// RecordCache publishes the lookup counters of the named cache.
func (r *Recorder) RecordCache(name string, stats cachemanager.Stats) {
	r.cacheLookups.WithLabelValues(name, "hit").Set(float64(stats.Hits))
	r.cacheLookups.WithLabelValues(name, "miss").Set(float64(stats.Misses))
}

// Gatherer exposes the registry, e.g. for tests or an HTTP handler.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	log.Debug(log.CatTrace, "Wrote metrics textfile", "path", path)
	return nil
}
