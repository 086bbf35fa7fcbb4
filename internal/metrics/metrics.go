// Package metrics exposes pipeline counters on a Prometheus scrape endpoint.
// Each Metrics value owns its registry, so tests and embedded use never fight
// over global collector registration.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recheck/internal/logging"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	recordsProcessed *prometheus.CounterVec
	payeeVerdicts    *prometheus.CounterVec
	batchesCompleted prometheus.Counter
	batchDuration    prometheus.Histogram
}

// New builds a Metrics value with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		recordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recheck",
			Name:      "records_processed_total",
			Help:      "Check records processed, by outcome.",
		}, []string{"outcome"}),
		payeeVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recheck",
			Name:      "payee_verdicts_total",
			Help:      "Payee match verdicts recorded, by verdict.",
		}, []string{"verdict"}),
		batchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recheck",
			Name:      "batches_completed_total",
			Help:      "Batches run to completion.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recheck",
			Name:      "batch_duration_seconds",
			Help:      "Wall time spent processing one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}

	registry.MustRegister(m.recordsProcessed, m.payeeVerdicts, m.batchesCompleted, m.batchDuration)
	return m
}

// RecordProcessed counts one record finishing the pipeline with the given
// outcome ("matched", "unmatched", "skipped", "failed").
func (m *Metrics) RecordProcessed(outcome string) {
	m.recordsProcessed.WithLabelValues(outcome).Inc()
}

// PayeeVerdict counts one recorded match verdict ("yes" or "no").
func (m *Metrics) PayeeVerdict(verdict string) {
	m.payeeVerdicts.WithLabelValues(verdict).Inc()
}

// BatchCompleted counts one finished batch and observes its duration.
func (m *Metrics) BatchCompleted(duration time.Duration) {
	m.batchesCompleted.Inc()
	m.batchDuration.Observe(duration.Seconds())
}

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves the scrape endpoint on bind until ctx is cancelled.
// It returns once the listener is shut down.
func (m *Metrics) StartServer(ctx context.Context, bind string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: bind, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Info("metrics endpoint listening", logging.String("bind", bind))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
