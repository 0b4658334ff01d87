package analysis

import "math"

// Stats summarizes one column of samples.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe returns population statistics of xs. An empty slice yields NaN
// moments.
func Describe(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{Mean: math.NaN(), StdDev: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	st := Stats{N: len(xs), Min: xs[0], Max: xs[0]}
	sum := 0.0
	for _, x := range xs {
		sum += x
		st.Min = math.Min(st.Min, x)
		st.Max = math.Max(st.Max, x)
	}
	st.Mean = sum / float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - st.Mean
		ss += d * d
	}
	st.StdDev = math.Sqrt(ss / float64(len(xs)))
	return st
}
