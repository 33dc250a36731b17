package linearlogic

import (
	"github.com/prometheus/client_golang/prometheus"
)

// KBMetrics instruments a KnowledgeBase with Prometheus counters/gauges
// (domain stack: nomad and erigon both instrument their core subsystems
// this way). A KnowledgeBase created without a registry gets a no-op
// KBMetrics, so instrumentation is opt-in.
type KBMetrics struct {
	resourcesByLevel *prometheus.GaugeVec
	rules            prometheus.Gauge
	checkpointDepth  prometheus.Gauge
	consumptions     prometheus.Counter
}

// NewKBMetrics registers KB gauges/counters under reg, namespaced
// "linearlogic_kb_". A nil reg yields a no-op KBMetrics.
func NewKBMetrics(reg prometheus.Registerer) *KBMetrics {
	if reg == nil {
		return &KBMetrics{}
	}
	m := &KBMetrics{
		resourcesByLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "linearlogic",
			Subsystem: "kb",
			Name:      "resources",
			Help:      "Live resource count by persistence level.",
		}, []string{"level"}),
		rules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "linearlogic",
			Subsystem: "kb",
			Name:      "rules",
			Help:      "Number of rules registered in the knowledge base.",
		}),
		checkpointDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "linearlogic",
			Subsystem: "kb",
			Name:      "checkpoint_depth",
			Help:      "Current length of the consumption trail that checkpoints roll back to.",
		}),
		consumptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linearlogic",
			Subsystem: "kb",
			Name:      "consumptions_total",
			Help:      "Total number of linear resources marked consumed.",
		}),
	}
	reg.MustRegister(m.resourcesByLevel, m.rules, m.checkpointDepth, m.consumptions)
	return m
}

func (m *KBMetrics) setResources(level PersistenceLevel, count int) {
	if m == nil || m.resourcesByLevel == nil {
		return
	}
	m.resourcesByLevel.WithLabelValues(level.String()).Set(float64(count))
}

func (m *KBMetrics) setRules(count int) {
	if m == nil || m.rules == nil {
		return
	}
	m.rules.Set(float64(count))
}

func (m *KBMetrics) setCheckpointDepth(depth int) {
	if m == nil || m.checkpointDepth == nil {
		return
	}
	m.checkpointDepth.Set(float64(depth))
}

func (m *KBMetrics) incConsumptions() {
	if m == nil || m.consumptions == nil {
		return
	}
	m.consumptions.Inc()
}

// EngineMetrics instruments an Engine's resolution activity.
type EngineMetrics struct {
	solutions prometheus.Counter
	branches  prometheus.Counter
}

// NewEngineMetrics registers Engine counters under reg. A nil reg
// yields a no-op EngineMetrics.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	m := &EngineMetrics{
		solutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linearlogic",
			Subsystem: "engine",
			Name:      "solutions_total",
			Help:      "Total number of solutions recorded by the collector.",
		}),
		branches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linearlogic",
			Subsystem: "engine",
			Name:      "branches_total",
			Help:      "Total number of search branches attempted.",
		}),
	}
	reg.MustRegister(m.solutions, m.branches)
	return m
}

func (m *EngineMetrics) incSolutions() {
	if m == nil || m.solutions == nil {
		return
	}
	m.solutions.Inc()
}

func (m *EngineMetrics) incBranches() {
	if m == nil || m.branches == nil {
		return
	}
	m.branches.Inc()
}
