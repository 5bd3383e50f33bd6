// Package metrics exposes Prometheus metrics for the classification
// pipeline.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for ClassificationsTotal.
const (
	ResultMoved         = "moved"
	ResultNoTags        = "no_tags"
	ResultNoMatch       = "no_match"
	ResultAlreadyExists = "already_exists"
	ResultIOFailure     = "io_failure"
	ResultMatched       = "matched"
	ResultSkipped       = "skipped"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg prometheus.Registerer

	EventsReceived         prometheus.Counter
	ClassificationsTotal   *prometheus.CounterVec
	ExtractionsTotal       *prometheus.CounterVec
	RuleLoadFailures       prometheus.Counter
	ClassificationDuration prometheus.Histogram
}

// New creates and registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		EventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "charon_events_received_total",
			Help: "Total number of change events received from the watcher",
		}),
		ClassificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charon_classifications_total",
				Help: "Total number of classified files, by result",
			},
			[]string{"result"},
		),
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charon_tag_extractions_total",
				Help: "Total number of tag extractions, by the stage that produced tags",
			},
			[]string{"stage"},
		),
		RuleLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "charon_rule_load_failures_total",
			Help: "Total number of failed rule document loads",
		}),
		ClassificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "charon_classification_duration_seconds",
			Help:    "Time taken to classify a file",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RegisterDropped exposes the watcher's dropped event count.
func (m *Metrics) RegisterDropped(dropped func() int64) {
	if m == nil {
		return
	}

	promauto.With(m.reg).NewCounterFunc(prometheus.CounterOpts{
		Name: "charon_events_dropped_total",
		Help: "Total number of change events dropped because the buffer was full",
	}, func() float64 {
		return float64(dropped())
	})
}

func (m *Metrics) ObserveEvent() {
	if m == nil {
		return
	}

	m.EventsReceived.Inc()
}

func (m *Metrics) ObserveExtraction(stage string) {
	if m == nil {
		return
	}

	m.ExtractionsTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveRuleLoadFailure() {
	if m == nil {
		return
	}

	m.RuleLoadFailures.Inc()
}

func (m *Metrics) ObserveClassification(result string, d time.Duration) {
	if m == nil {
		return
	}

	m.ClassificationsTotal.WithLabelValues(result).Inc()
	m.ClassificationDuration.Observe(d.Seconds())
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve serves "/metrics" on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve metrics: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}

		return nil
	}
}
