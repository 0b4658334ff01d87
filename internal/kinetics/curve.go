// Package kinetics computes the first-order adsorption curve shown next to
// the live readings: C(t) = C0 * exp(-k t/10), with k proportional to dose.
package kinetics

import "math"

const (
	// RatePerDose is k per g/L of adsorbent.
	RatePerDose = 0.15
	// Horizon and Step are in minutes.
	Horizon = 60.0
	Step    = 5.0
	// timeScale converts minutes into the model's time unit.
	timeScale = 10.0
)

// Point is one sample of the curve.
type Point struct {
	Time          float64 `json:"time"`          // min
	Concentration float64 `json:"concentration"` // % of inlet load
}

// Rate returns the reaction rate constant for a dose.
func Rate(dosage float64) float64 { return dosage * RatePerDose }

// Residual returns the contaminant left after t minutes.
func Residual(c0, dosage, t float64) float64 {
	return c0 * math.Exp(-Rate(dosage)*(t/timeScale))
}

// HalfLife returns the minutes needed to halve the load, or +Inf when the
// dose is zero.
func HalfLife(dosage float64) float64 {
	k := Rate(dosage)
	if k <= 0 {
		return math.Inf(1)
	}
	return math.Ln2 / k * timeScale
}

// Curve samples the decay of c0 at 0, 5, ..., 60 minutes.
func Curve(c0, dosage float64) []Point {
	n := int(Horizon/Step) + 1
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * Step
		pts = append(pts, Point{Time: t, Concentration: Residual(c0, dosage, t)})
	}
	return pts
}

// Concentrations returns only the y values of a curve, for plotting.
func Concentrations(pts []Point) []float64 {
	ys := make([]float64, len(pts))
	for i, p := range pts {
		ys[i] = p.Concentration
	}
	return ys
}
