package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the nestflow collectors.
type Metrics struct {
	registry *prometheus.Registry

	mutations   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	completions *prometheus.CounterVec
	saves       *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry, which also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestflow_graph_mutations_total",
				Help: "Total number of applied graph store mutations",
			},
			[]string{"op"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestflow_playback_transitions_total",
				Help: "Total number of nodes entered during playback",
			},
			[]string{"node_type"},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestflow_playback_completions_total",
				Help: "Total number of finished playbacks by reason",
			},
			[]string{"reason"},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestflow_module_saves_total",
				Help: "Total number of module content saves by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.mutations,
		m.transitions,
		m.completions,
		m.saves,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GraphListener counts store mutations. Subscribe it with graph.Store.Subscribe.
func (m *Metrics) GraphListener() graph.Listener {
	return func(c graph.Change) {
		m.mutations.WithLabelValues(string(c.Op)).Inc()
	}
}

// Hooks returns player hooks that count transitions and completions.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.transitions.WithLabelValues(string(e.NodeType)).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.CompletionEvent) {
			m.completions.WithLabelValues(string(e.Reason)).Inc()
		},
	}
}

// ObserveSave records the outcome of a content save.
func (m *Metrics) ObserveSave(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.saves.WithLabelValues(result).Inc()
}
