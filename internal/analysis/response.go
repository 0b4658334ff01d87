package analysis

import (
	"fmt"
	"math"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/control"
)

// Response describes how the dosing loop tracked its target over a run.
type Response struct {
	// SettlingTick is the first sample after which the dose stays inside the
	// deadband, or -1 if it never settles.
	SettlingTick int
	FinalError   float64 // g/L, dose minus target at the last sample
	PeakError    float64 // g/L, largest absolute error
	Adjustments  int     // samples where the controller moved the dose
}

// ControllerResponse evaluates dosage against the target implied by load.
// Both columns must have the same length.
func ControllerResponse(load, dosage []float64, d control.Dosing) (Response, error) {
	if len(load) != len(dosage) {
		return Response{}, fmt.Errorf("analysis: %d load samples but %d dosage samples", len(load), len(dosage))
	}
	if len(load) == 0 {
		return Response{SettlingTick: -1}, nil
	}

	r := Response{SettlingTick: -1}
	for i := range load {
		err := dosage[i] - d.Target(load[i])
		r.PeakError = math.Max(r.PeakError, math.Abs(err))
		if math.Abs(err) <= d.Deadband {
			if r.SettlingTick < 0 {
				r.SettlingTick = i
			}
		} else {
			r.SettlingTick = -1
		}
		if i > 0 && dosage[i] != dosage[i-1] {
			r.Adjustments++
		}
	}
	r.FinalError = dosage[len(dosage)-1] - d.Target(load[len(load)-1])
	return r, nil
}
