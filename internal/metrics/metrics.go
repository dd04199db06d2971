package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the compiler metrics
type Registry struct {
	ChainsCompiledTotal *prometheus.CounterVec
	CompileErrorsTotal  *prometheus.CounterVec
	CompileDuration     prometheus.Histogram
	GraphNodes          prometheus.Histogram

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.ChainsCompiledTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "datachain_chains_compiled_total",
			Help: "Total number of chains passed to the compiler",
		},
		[]string{"status"},
	)

	r.CompileErrorsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "datachain_compile_errors_total",
			Help: "Compilation failures by reason",
		},
		[]string{"reason"},
	)

	r.CompileDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datachain_compile_duration_seconds",
			Help:    "Time spent compiling a single chain",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	r.GraphNodes = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datachain_graph_nodes",
			Help:    "Number of nodes in compiled graphs",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	return r
}

// RecordCompile records one successful compilation
func (r *Registry) RecordCompile(duration time.Duration, nodes int) {
	r.ChainsCompiledTotal.WithLabelValues("success").Inc()
	r.CompileDuration.Observe(duration.Seconds())
	r.GraphNodes.Observe(float64(nodes))
}

// RecordCompileError records a failed compilation
func (r *Registry) RecordCompileError(reason string, duration time.Duration) {
	r.ChainsCompiledTotal.WithLabelValues("error").Inc()
	r.CompileErrorsTotal.WithLabelValues(reason).Inc()
	r.CompileDuration.Observe(duration.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format, for
// collection by node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
