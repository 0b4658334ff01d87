package process

import (
	"math"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/control"
)

// AlertHighContamination is raised while the controller is ramping the dose
// up for a heavily loaded inlet.
const AlertHighContamination = "High Contamination: Increasing Dosage"

// Model holds the tunable constants of the tick transition.
type Model struct {
	Dosing         control.Dosing
	AlertLoad      float64 // load above which a ramping controller raises an alert
	BaseTurbidity  float64 // NTU at a matched dose
	TurbidityNoise float64 // peak-to-peak sensor noise, NTU
	RecoveryNoise  float64 // peak-to-peak sensor noise, %
}

func DefaultModel() Model {
	return Model{
		Dosing:         control.DefaultDosing(),
		AlertLoad:      70,
		BaseTurbidity:  5,
		TurbidityNoise: 1.0,
		RecoveryNoise:  0.2,
	}
}

// Tick advances prev by one second using the default model.
func Tick(prev State, src Source) State {
	return DefaultModel().Tick(prev, src)
}

// Tick advances prev by one second. src is sampled twice: turbidity noise
// first, recovery noise second.
func (m Model) Tick(prev State, src Source) State {
	next := prev.Clone()
	alerts := []string{}

	dosage := prev.Dosage
	if prev.AutoDosing {
		var adjusting bool
		dosage, adjusting = m.Dosing.Compute(prev.PollutantLoad, prev.Dosage)
		if adjusting && prev.PollutantLoad > m.AlertLoad {
			alerts = append(alerts, AlertHighContamination)
		}
	}
	dosage = clamp(dosage, MinDosage, MaxDosage)

	turbidity := m.BaseTurbidity + prev.PollutantLoad*0.5*math.Max(0, 1-m.dosageRatio(dosage, prev.PollutantLoad))
	turbidity += centered(src, m.TurbidityNoise)
	turbidity = math.Max(0, turbidity)

	do := clamp(8.5-turbidity/20, 0, MaxDO)

	flowFactor := math.Max(0, (prev.FlowRate-150)*0.05)
	recovery := clamp(99-flowFactor+centered(src, m.RecoveryNoise), 0, MaxRecovery)

	next.Dosage = dosage
	next.Turbidity = turbidity
	next.DissolvedOxygen = do
	next.RecoveryRate = recovery
	next.Alerts = alerts
	return next
}

// dosageRatio is dose over required dose. A clean inlet needs no dose, so
// the ratio saturates and the turbidity excess term vanishes.
func (m Model) dosageRatio(dosage, load float64) float64 {
	required := m.Dosing.Target(load)
	if required <= 0 {
		return math.Inf(1)
	}
	return dosage / required
}
