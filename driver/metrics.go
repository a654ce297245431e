package driver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TFMV/growthgraph/models"
)

var (
	// GrowthNodes tracks the node count after the last tick
	GrowthNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "growthgraph_nodes",
			Help: "Number of nodes in the simulation graph",
		},
	)

	// GrowthEdges tracks the edge count after the last tick
	GrowthEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "growthgraph_edges",
			Help: "Number of edges in the simulation graph",
		},
	)

	// GrowthTicksTotal counts completed ticks
	GrowthTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "growthgraph_ticks_total",
			Help: "Total number of simulation ticks",
		},
	)

	// GrowthTopologyTotal counts structural edits by kind
	GrowthTopologyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growthgraph_topology_events_total",
			Help: "Structural graph edits applied by the simulation",
		},
		[]string{"event"},
	)

	// GrowthRolledBackTotal counts coordinates restored after a degenerate update
	GrowthRolledBackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "growthgraph_rolled_back_total",
			Help: "Coordinate updates rolled back because they produced NaN",
		},
	)

	// GrowthLoopsTotal counts inserted loops by outcome
	GrowthLoopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growthgraph_loops_total",
			Help: "Loop insertion requests by outcome",
		},
		[]string{"outcome"},
	)

	// GrowthTickSeconds tracks how long one tick takes including capture
	GrowthTickSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "growthgraph_tick_duration_seconds",
			Help:    "Duration of a simulation tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(GrowthNodes)
	prometheus.MustRegister(GrowthEdges)
	prometheus.MustRegister(GrowthTicksTotal)
	prometheus.MustRegister(GrowthTopologyTotal)
	prometheus.MustRegister(GrowthRolledBackTotal)
	prometheus.MustRegister(GrowthLoopsTotal)
	prometheus.MustRegister(GrowthTickSeconds)
}

func observe(f *models.Frame, elapsed time.Duration) {
	GrowthTicksTotal.Inc()
	GrowthNodes.Set(float64(len(f.Nodes)))
	GrowthEdges.Set(float64(len(f.Edges)))
	GrowthTickSeconds.Observe(elapsed.Seconds())

	st := f.Stats
	GrowthTopologyTotal.WithLabelValues("edge_formed").Add(float64(st.EdgesFormed))
	GrowthTopologyTotal.WithLabelValues("subdivided").Add(float64(st.Subdivided))
	GrowthTopologyTotal.WithLabelValues("collapsed").Add(float64(st.Collapsed))
	GrowthTopologyTotal.WithLabelValues("culled").Add(float64(len(st.Culled)))
	GrowthTopologyTotal.WithLabelValues("cap_removed").Add(float64(st.CapRemoved))
	GrowthRolledBackTotal.Add(float64(st.RolledBack))
}
