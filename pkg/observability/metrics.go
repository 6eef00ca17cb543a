package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	r *prometheus.Registry

	Selections     *prometheus.CounterVec
	Resets         prometheus.Counter
	PersistErrors  prometheus.Counter
	CollectionSize prometheus.Histogram
}

// NewMetrics registers the selector collectors on a dedicated registry.
func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()

	m := &Metrics{
		r: r,
		Selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selector_selections_total",
				Help: "Total number of segments selected",
			},
			[]string{"behavior"},
		),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selector_resets_total",
			Help: "Total number of progress resets caused by changed input",
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selector_persist_errors_total",
			Help: "Total number of state mutations that could not be saved",
		}),
		CollectionSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "selector_collection_size",
			Help:    "Number of segments in the collection of each selection",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	r.MustRegister(m.Selections, m.Resets, m.PersistErrors, m.CollectionSize)
	return m
}

// Registry returns the registry holding the selector collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.r
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	reg := m.Registry()
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}

// Hooks returns lifecycle hooks that record every engine event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSelect: func(_ context.Context, e *domain.SelectEvent) {
			m.Selections.WithLabelValues(e.Behavior.String()).Inc()
			m.CollectionSize.Observe(float64(e.Total))
		},
		OnReset: func(context.Context, *domain.ResetEvent) {
			m.Resets.Inc()
		},
		OnPersistError: func(context.Context, *domain.PersistErrorEvent) {
			m.PersistErrors.Inc()
		},
	}
}

// LoggingHooks returns lifecycle hooks that write every engine event to logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSelect: func(ctx context.Context, e *domain.SelectEvent) {
			logger.InfoContext(ctx, "select",
				"key", e.Key,
				"behavior", e.Behavior,
				"index", e.Index,
				"next_index", e.NextIndex,
				"total", e.Total,
			)
		},
		OnReset: func(ctx context.Context, e *domain.ResetEvent) {
			logger.InfoContext(ctx, "reset",
				"key", e.Key,
				"previous_total", e.PreviousTotal,
				"total", e.Total,
			)
		},
		OnPersistError: func(ctx context.Context, e *domain.PersistErrorEvent) {
			logger.ErrorContext(ctx, "persist_error", "key", e.Key, "err", e.Err)
		},
	}
}
