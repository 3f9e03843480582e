package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one run. Each Metrics owns its registry
// so a run can be flushed to a node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal      *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	PostingsFetched   *prometheus.CounterVec
	PostingsMatched   prometheus.Gauge
	PostingsNew       prometheus.Gauge
	SnapshotSize      prometheus.Gauge
	LastRunTimestamp  prometheus.Gauge
	LastRunDuration   prometheus.Gauge
	NotifyFailedTotal prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobradar_fetches_total",
			Help: "Organization fetches by provider and outcome (ok, partial, failed)",
		}, []string{"provider", "outcome"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobradar_fetch_duration_seconds",
			Help:    "Time to fetch one organization, including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		PostingsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobradar_postings_fetched_total",
			Help: "Postings returned by providers before classification",
		}, []string{"provider"}),
		PostingsMatched: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jobradar_postings_matched",
			Help: "Postings that passed the classifier in the last run",
		}),
		PostingsNew: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jobradar_postings_new",
			Help: "Postings not present in the prior snapshot in the last run",
		}),
		SnapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jobradar_snapshot_postings",
			Help: "Postings tracked in the snapshot after the last run",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jobradar_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		LastRunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jobradar_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		NotifyFailedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobradar_notify_failures_total",
			Help: "Notifier calls that returned an error",
		}),
	}
}

// ObserveFetch records the outcome of one organization fetch.
func (m *Metrics) ObserveFetch(provider string, postings int, err error, elapsed time.Duration) {
	outcome := "ok"
	switch {
	case err != nil && postings > 0:
		outcome = "partial"
	case err != nil:
		outcome = "failed"
	}
	m.FetchesTotal.WithLabelValues(provider, outcome).Inc()
	m.FetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	m.PostingsFetched.WithLabelValues(provider).Add(float64(postings))
}

// ObserveRun records the run-level totals.
func (m *Metrics) ObserveRun(matched, fresh, snapshot int, finished time.Time, elapsed time.Duration) {
	m.PostingsMatched.Set(float64(matched))
	m.PostingsNew.Set(float64(fresh))
	m.SnapshotSize.Set(float64(snapshot))
	m.LastRunTimestamp.Set(float64(finished.Unix()))
	m.LastRunDuration.Set(elapsed.Seconds())
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every collector in the text exposition format,
// replacing path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
