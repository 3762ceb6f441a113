package remap

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "remap"

// Metrics counts the work done by remapper runs.
type Metrics struct {
	candidatePairs prometheus.Counter
	nonzeroWeights prometheus.Counter
	degenerate     *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		candidatePairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "candidate_pairs_total",
			Help:      "Cell pairs returned by the bounding box tree and handed to a kernel.",
		}),
		nonzeroWeights: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "nonzero_weights_total",
			Help:      "Weights stored in interpolation matrices.",
		}),
		degenerate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "degenerate_cells_total",
			Help:      "Cells excluded for a measure below precision.",
		}, []string{"mesh"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of remapper runs, tree construction excluded.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.candidatePairs, m.nonzeroWeights, m.degenerate, m.runDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("remap: registering metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) addCandidates(n int) {
	if m != nil {
		m.candidatePairs.Add(float64(n))
	}
}

func (m *Metrics) addWeights(n int) {
	if m != nil {
		m.nonzeroWeights.Add(float64(n))
	}
}

func (m *Metrics) addDegenerate(mesh string) {
	if m != nil {
		m.degenerate.WithLabelValues(mesh).Inc()
	}
}

func (m *Metrics) observeRun(d time.Duration) {
	if m != nil {
		m.runDuration.Observe(d.Seconds())
	}
}
