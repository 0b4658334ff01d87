package process

// Source yields uniform samples in [0,1). *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Constant is a Source that always returns the same sample.
type Constant float64

func (c Constant) Float64() float64 { return float64(c) }

// Silent centres every noise term on zero.
const Silent = Constant(0.5)

// Sequence replays the given samples in order and then repeats the last one.
type Sequence struct {
	values []float64
	next   int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0.5
	}
	v := s.values[min(s.next, len(s.values)-1)]
	s.next++
	return v
}

// centered maps a [0,1) sample onto [-amp/2, amp/2).
func centered(src Source, amp float64) float64 {
	return (src.Float64() - 0.5) * amp
}
