// Package rsametrics exposes the Prometheus counters and histograms
// for a routing run. Unlike the teacher's always-on gRPC services, the
// routing tool is a batch CLI with no long-lived HTTP listener, so
// metrics are written to a textfile-collector file at the end of a run
// instead of being scraped live.
package rsametrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics is the full set of counters/histograms/gauges for one
// routing run, registered against its own Registry rather than the
// global default so multiple runs in the same process (as in tests)
// don't collide.
type Metrics struct {
	registry *prometheus.Registry

	RoundsTotal          *prometheus.CounterVec
	RoundDuration        *prometheus.HistogramVec
	DemandsRoutedTotal   prometheus.Counter
	DemandsInfeasible    prometheus.Counter
	DemandsPending       prometheus.Gauge
	MaxUsedSlicePosition prometheus.Gauge
	SubgradientIterations prometheus.Histogram
	GraphNodesTotal      *prometheus.HistogramVec
	GraphEdgesTotal      *prometheus.HistogramVec
	RunInfo              *prometheus.GaugeVec
}

// New builds a fresh Metrics with its own Registry, labeled under the
// given namespace/subsystem.
func New(namespace, subsystem string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		RoundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rounds_total",
				Help:      "Total number of routing rounds processed, by method and outcome",
			},
			[]string{"method", "outcome"},
		),

		RoundDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "round_duration_seconds",
				Help:      "Duration of one routing round",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),

		DemandsRoutedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "demands_routed_total",
				Help:      "Total number of demands successfully routed",
			},
		),

		DemandsInfeasible: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "demands_infeasible_total",
				Help:      "Total number of demands that could not be routed",
			},
		),

		DemandsPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "demands_pending",
				Help:      "Number of demands still waiting to be routed",
			},
		),

		MaxUsedSlicePosition: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "max_used_slice_position",
				Help:      "Highest slice position used across the network after the last round",
			},
		),

		SubgradientIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subgradient_iterations",
				Help:      "Number of iterations the subgradient method ran before stopping",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),

		GraphNodesTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of nodes in a demand's extended graph after preprocessing",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
			},
			[]string{"preprocessing_level"},
		),

		GraphEdgesTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of arcs in a demand's extended graph after preprocessing",
				Buckets:   []float64{20, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"preprocessing_level"},
		),

		RunInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "run_info",
				Help:      "Static information about the current run",
			},
			[]string{"method", "objective"},
		),
	}

	return m
}

// RecordRound records one routing round's outcome and duration.
func (m *Metrics) RecordRound(method, outcome string, duration time.Duration) {
	m.RoundsTotal.WithLabelValues(method, outcome).Inc()
	m.RoundDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordGraphSize records the size of a demand's extended graph.
func (m *Metrics) RecordGraphSize(preprocessingLevel string, nodes, edges int) {
	m.GraphNodesTotal.WithLabelValues(preprocessingLevel).Observe(float64(nodes))
	m.GraphEdgesTotal.WithLabelValues(preprocessingLevel).Observe(float64(edges))
}

// SetRunInfo stamps the run's static method/objective labels.
func (m *Metrics) SetRunInfo(method, objective string) {
	m.RunInfo.WithLabelValues(method, objective).Set(1)
}

// WriteToTextfile gathers every metric and writes it to path in the
// Prometheus text exposition format, via a temp file plus rename so a
// textfile-collector scrape never observes a partial write.
func (m *Metrics) WriteToTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("rsametrics: gather: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rsametrics-*")
	if err != nil {
		return fmt.Errorf("rsametrics: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	encoder := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			tmp.Close()
			return fmt.Errorf("rsametrics: encode: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("rsametrics: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rsametrics: rename: %w", err)
	}
	return nil
}
