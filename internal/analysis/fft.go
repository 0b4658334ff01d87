package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum removes the mean of data, zero-pads it to a power of two and
// returns the magnitude of the first half of the spectrum.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	n := 1
	for n < len(data) {
		n *= 2
	}
	mean := Describe(data).Mean
	padded := make([]float64, n)
	for i, v := range data {
		padded[i] = v - mean
	}

	coeffs := fft.FFTReal(padded)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantPeriod returns the period, in samples, of the strongest non-zero
// frequency in data, or 0 when the signal is flat.
func DominantPeriod(data []float64) float64 {
	ps := PowerSpectrum(data)
	best, idx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, idx = ps[i], i
		}
	}
	if idx == 0 || best < 1e-9 {
		return 0
	}
	return float64(2*len(ps)) / float64(idx)
}
