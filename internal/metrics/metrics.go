package metrics

import (
	"sync"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

// Metric aggregates one figure over the ticks of a run.
type Metric interface {
	Name() string
	Observe(s process.State)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded with every session.
func Defaults() []Metric {
	return []Metric{
		NewMean("mean_turbidity", process.FieldTurbidity),
		NewPeak("peak_turbidity", process.FieldTurbidity),
		NewMean("mean_recovery", process.FieldRecoveryRate),
		NewMean("mean_dissolved_oxygen", process.FieldDissolvedOxygen),
		NewCompliance(process.TurbidityWarnLevel),
		NewAdsorbentUse(),
		NewAlertRate(),
		NewManualShare(),
	}
}

// Collector feeds clock ticks to a set of metrics.
type Collector struct {
	mu      sync.Mutex
	metrics []Metric
}

func NewCollector(ms ...Metric) *Collector {
	return &Collector{metrics: ms}
}

// OnSnapshot implements sim.Observer.
func (c *Collector) OnSnapshot(s sim.Snapshot) {
	if s.Cause != sim.CauseTick {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.metrics {
		m.Observe(s.State)
	}
}

func (c *Collector) Values() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.metrics {
		m.Reset()
	}
}
