package storage

import (
	"sync"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

// Recorder buffers clock ticks for a later Save.
type Recorder struct {
	mu      sync.Mutex
	start   time.Time
	samples []Sample
}

func NewRecorder() *Recorder {
	return &Recorder{samples: make([]Sample, 0, 256)}
}

// OnSnapshot implements sim.Observer.
func (r *Recorder) OnSnapshot(s sim.Snapshot) {
	if s.Cause != sim.CauseTick {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) == 0 {
		r.start = s.At
	}
	r.samples = append(r.samples, Sample{Tick: s.Tick, Elapsed: s.At.Sub(r.start), State: s.State})
}

func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
