package metrics

import (
	"math"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

type Mean struct {
	name    string
	field   process.Field
	sum     float64
	samples int
}

func NewMean(name string, f process.Field) *Mean {
	return &Mean{name: name, field: f}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(s process.State) {
	v, err := s.Get(m.field)
	if err != nil {
		return
	}
	m.sum += v
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}

type Peak struct {
	name  string
	field process.Field
	max   float64
	seen  bool
}

func NewPeak(name string, f process.Field) *Peak {
	return &Peak{name: name, field: f}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s process.State) {
	v, err := s.Get(p.field)
	if err != nil {
		return
	}
	if !p.seen || v > p.max {
		p.max = v
		p.seen = true
	}
}

func (p *Peak) Value() float64 {
	if !p.seen {
		return 0
	}
	return p.max
}

func (p *Peak) Reset() {
	p.max = math.Inf(-1)
	p.seen = false
}

// Compliance is the fraction of ticks with turbidity at or below a limit.
type Compliance struct {
	limit      float64
	violations int
	samples    int
}

func NewCompliance(limit float64) *Compliance {
	return &Compliance{limit: limit}
}

func (c *Compliance) Name() string { return "turbidity_compliance" }

func (c *Compliance) Observe(s process.State) {
	c.samples++
	if s.Turbidity > c.limit {
		c.violations++
	}
}

func (c *Compliance) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Compliance) Reset() {
	c.violations = 0
	c.samples = 0
}
