// Package metrics exports the wear activity of runners as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sarchlab/ftlsim/ftl"
)

// Collector is a hook that turns runner events into metrics. Metrics are
// labeled with the runner name. A Collector may be shared by runners that run
// in parallel.
type Collector struct {
	registry *prometheus.Registry

	lock      sync.Mutex
	maxWrites map[string]uint64

	PhysicalWrites  *prometheus.CounterVec
	Remaps          *prometheus.CounterVec
	RetiredBlocks   *prometheus.CounterVec
	Exhaustions     *prometheus.CounterVec
	MaxBlockWrites  *prometheus.GaugeVec
	RunsCompleted   *prometheus.CounterVec
	SkippedRequests *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry:  prometheus.NewRegistry(),
		maxWrites: make(map[string]uint64),
	}
	factory := promauto.With(c.registry)

	c.PhysicalWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftlsim_physical_writes_total",
			Help: "Number of blocks programmed",
		},
		[]string{"runner"},
	)

	c.Remaps = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftlsim_remaps_total",
			Help: "Number of writes that left a stale block behind",
		},
		[]string{"runner"},
	)

	c.RetiredBlocks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftlsim_retired_blocks_total",
			Help: "Number of blocks that reached their lifespan",
		},
		[]string{"runner"},
	)

	c.Exhaustions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftlsim_exhaustions_total",
			Help: "Number of runs stopped because no healthy block was left",
		},
		[]string{"runner"},
	)

	c.MaxBlockWrites = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ftlsim_max_block_writes",
			Help: "Highest write count observed on a single block",
		},
		[]string{"runner"},
	)

	c.RunsCompleted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftlsim_runs_total",
			Help: "Number of runs observed, by outcome",
		},
		[]string{"runner", "outcome"},
	)

	c.SkippedRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftlsim_skipped_requests_total",
			Help: "Number of requests with an out-of-range logical address",
		},
		[]string{"runner"},
	)

	return c
}

// Registry returns the registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Func updates the metrics from a runner event.
func (c *Collector) Func(ctx ftl.HookCtx) {
	name := ""
	if ctx.Runner != nil {
		name = ctx.Runner.Name()
	}

	switch ctx.Pos {
	case ftl.HookPosBlockWritten:
		evt, ok := ctx.Detail.(ftl.WriteEvent)
		if !ok {
			return
		}

		c.PhysicalWrites.WithLabelValues(name).Inc()
		if evt.Remapped {
			c.Remaps.WithLabelValues(name).Inc()
		}

		c.lock.Lock()
		if evt.WriteCount > c.maxWrites[name] {
			c.maxWrites[name] = evt.WriteCount
			c.MaxBlockWrites.WithLabelValues(name).Set(float64(evt.WriteCount))
		}
		c.lock.Unlock()
	case ftl.HookPosBlockRetired:
		c.RetiredBlocks.WithLabelValues(name).Inc()
	case ftl.HookPosExhausted:
		c.Exhaustions.WithLabelValues(name).Inc()
	}
}

// ObserveResult accounts for a finished run.
func (c *Collector) ObserveResult(runner string, res ftl.Result) {
	c.RunsCompleted.WithLabelValues(runner, res.Outcome.String()).Inc()
	c.SkippedRequests.WithLabelValues(runner).
		Add(float64(res.Statistics.SkippedRequests))
}
