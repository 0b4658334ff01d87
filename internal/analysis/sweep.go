package analysis

import (
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

// SweepPoint is the steady state reached at one pollutant load.
type SweepPoint struct {
	Load      float64
	Dosage    float64 // final dose
	Turbidity float64 // mean over the recorded ticks
	Recovery  float64 // mean over the recorded ticks
	Alerts    int     // ticks with alerts, transient included
}

// Sweep holds every input of initial fixed except the pollutant load, which
// is stepped from loadMin to loadMax. Each point runs transient ticks, then
// averages the next record ticks.
func Sweep(m process.Model, initial process.State, loadMin, loadMax float64, steps, transient, record int, src process.Source) []SweepPoint {
	if steps <= 1 {
		steps = 2
	}
	if record < 1 {
		record = 1
	}
	step := (loadMax - loadMin) / float64(steps-1)

	points := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		load := loadMin + float64(i)*step
		s, err := process.ApplyUserEdit(initial, process.FieldPollutantLoad, load)
		if err != nil {
			continue
		}

		p := SweepPoint{Load: s.PollutantLoad}
		for t := 0; t < transient; t++ {
			s = m.Tick(s, src)
			if len(s.Alerts) > 0 {
				p.Alerts++
			}
		}
		var turb, rec float64
		for t := 0; t < record; t++ {
			s = m.Tick(s, src)
			if len(s.Alerts) > 0 {
				p.Alerts++
			}
			turb += s.Turbidity
			rec += s.RecoveryRate
		}
		p.Dosage = s.Dosage
		p.Turbidity = turb / float64(record)
		p.Recovery = rec / float64(record)
		points = append(points, p)
	}
	return points
}
