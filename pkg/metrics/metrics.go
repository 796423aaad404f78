// Package metrics provides Prometheus metrics export for fsnap.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all fsnap collectors on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	captures        *prometheus.CounterVec
	captureDuration prometheus.Histogram
	captureFiles    prometheus.Gauge
	captureWarnings prometheus.Counter
	diffs           prometheus.Counter
	diffDuration    prometheus.Histogram
	diffChanges     *prometheus.CounterVec
	historySize     prometheus.Gauge
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fsnap_capture_total",
			Help: "Snapshot captures by result.",
		}, []string{"result"}),
		captureDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fsnap_capture_duration_seconds",
			Help:    "Wall time of successful captures.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		captureFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fsnap_capture_files",
			Help: "Files recorded by the most recent successful capture.",
		}),
		captureWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fsnap_capture_warnings_total",
			Help: "Entries skipped during captures because they could not be read.",
		}),
		diffs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fsnap_diff_total",
			Help: "Snapshot diffs computed.",
		}),
		diffDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fsnap_diff_duration_seconds",
			Help:    "Wall time of snapshot diffs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		diffChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fsnap_diff_changes_total",
			Help: "Changes reported by diffs, by change type.",
		}, []string{"type"}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fsnap_history_snapshots",
			Help: "Snapshots currently retained in history.",
		}),
	}
	r.reg.MustRegister(
		r.captures,
		r.captureDuration,
		r.captureFiles,
		r.captureWarnings,
		r.diffs,
		r.diffDuration,
		r.diffChanges,
		r.historySize,
	)
	return r
}

// RecordCapture records a capture operation.
func (r *Registry) RecordCapture(success bool, duration time.Duration, files, warnings int) {
	if !success {
		r.captures.WithLabelValues("failure").Inc()
		r.captureWarnings.Add(float64(warnings))
		return
	}
	r.captures.WithLabelValues("success").Inc()
	r.captureDuration.Observe(duration.Seconds())
	r.captureFiles.Set(float64(files))
	r.captureWarnings.Add(float64(warnings))
}

// RecordDiff records a diff computation and its change counts.
func (r *Registry) RecordDiff(duration time.Duration, added, removed, modified int) {
	r.diffs.Inc()
	r.diffDuration.Observe(duration.Seconds())
	r.diffChanges.WithLabelValues("added").Add(float64(added))
	r.diffChanges.WithLabelValues("removed").Add(float64(removed))
	r.diffChanges.WithLabelValues("modified").Add(float64(modified))
}

// SetHistorySize records the number of retained snapshots.
func (r *Registry) SetHistorySize(n int) {
	r.historySize.Set(float64(n))
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
