package control

import (
	"fmt"
	"math"
)

// Dosing steps the dose toward Target(load) by exponential smoothing.
// Inside the deadband the dose is left untouched.
type Dosing struct {
	LoadDivisor float64 // load per g/L of required dose
	Deadband    float64 // g/L
	Gain        float64 // fraction of the error closed per step
}

func DefaultDosing() Dosing {
	return Dosing{LoadDivisor: 50, Deadband: 0.1, Gain: 0.1}
}

// Target returns the dose that exactly matches load.
func (d Dosing) Target(load float64) float64 {
	if d.LoadDivisor == 0 {
		return 0
	}
	return load / d.LoadDivisor
}

// Compute returns the next dose and whether the controller moved it.
func (d Dosing) Compute(load, dosage float64) (float64, bool) {
	target := d.Target(load)
	if math.Abs(dosage-target) <= d.Deadband {
		return dosage, false
	}
	return dosage + d.Gain*(target-dosage), true
}

// GetParams returns tunable parameters for live adjustment
func (d Dosing) GetParams() map[string]float64 {
	return map[string]float64{
		"LoadDivisor": d.LoadDivisor,
		"Deadband":    d.Deadband,
		"Gain":        d.Gain,
	}
}

// SetParam adjusts a dosing parameter.
func (d *Dosing) SetParam(name string, value float64) error {
	switch name {
	case "LoadDivisor":
		if value <= 0 {
			return fmt.Errorf("control: LoadDivisor must be positive, got %f", value)
		}
		d.LoadDivisor = value
	case "Deadband":
		if value < 0 {
			return fmt.Errorf("control: Deadband must be non-negative, got %f", value)
		}
		d.Deadband = value
	case "Gain":
		if value <= 0 || value > 1 {
			return fmt.Errorf("control: Gain must be in (0,1], got %f", value)
		}
		d.Gain = value
	default:
		return fmt.Errorf("control: unknown parameter %q", name)
	}
	return nil
}

// Validate reports the first invalid parameter.
func (d Dosing) Validate() error {
	c := d
	for name, v := range d.GetParams() {
		if err := c.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}
