package process

import (
	"math"
	"slices"
)

// Domains of the bounded fields.
const (
	MinPollutantLoad = 0.0
	MaxPollutantLoad = 100.0
	MinDosage        = 0.1
	MaxDosage        = 3.0
	MinFlowRate      = 50.0
	MaxFlowRate      = 200.0
	MinPH            = 0.0
	MaxPH            = 14.0
	MaxDO            = 10.0
	MaxRecovery      = 100.0

	// TurbidityWarnLevel is the reading above which the turbidity sensor is
	// shown in warning state.
	TurbidityWarnLevel = 10.0
)

// State is one snapshot of the treatment line.
type State struct {
	PollutantLoad   float64  `json:"pollutantLoad"`   // inlet contamination, %
	Dosage          float64  `json:"dosage"`          // adsorbent dose, g/L
	FlowRate        float64  `json:"flowRate"`        // L/min
	PH              float64  `json:"ph"`              // cosmetic only
	Turbidity       float64  `json:"turbidity"`       // NTU
	DissolvedOxygen float64  `json:"dissolvedOxygen"` // mg/L
	RecoveryRate    float64  `json:"recoveryRate"`    // %
	AutoDosing      bool     `json:"isAutoDosing"`
	Alerts          []string `json:"alerts"`
}

// Default returns the state the dashboard boots with.
func Default() State {
	return State{
		PollutantLoad:   50,
		Dosage:          0.8,
		FlowRate:        120,
		PH:              7.2,
		Turbidity:       15,
		DissolvedOxygen: 6.5,
		RecoveryRate:    98.2,
		AutoDosing:      true,
		Alerts:          []string{},
	}
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	c := s
	c.Alerts = slices.Clone(s.Alerts)
	if c.Alerts == nil {
		c.Alerts = []string{}
	}
	return c
}

// IsValid reports whether every numeric field is finite.
func (s State) IsValid() bool {
	for _, v := range []float64{s.PollutantLoad, s.Dosage, s.FlowRate, s.PH, s.Turbidity, s.DissolvedOxygen, s.RecoveryRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// InBounds reports whether every bounded field lies in its domain.
func (s State) InBounds() bool {
	return s.Dosage >= MinDosage && s.Dosage <= MaxDosage &&
		s.Turbidity >= 0 &&
		s.DissolvedOxygen >= 0 && s.DissolvedOxygen <= MaxDO &&
		s.RecoveryRate >= 0 && s.RecoveryRate <= MaxRecovery &&
		s.PollutantLoad >= MinPollutantLoad && s.PollutantLoad <= MaxPollutantLoad &&
		s.FlowRate >= MinFlowRate && s.FlowRate <= MaxFlowRate &&
		s.PH >= MinPH && s.PH <= MaxPH
}

// TurbidityWarning reports whether the turbidity reading is above the
// warning level.
func (s State) TurbidityWarning() bool { return s.Turbidity > TurbidityWarnLevel }

// Flocculating reports whether the dose is high enough for the suspended
// particles to aggregate.
func (s State) Flocculating() bool { return s.Dosage > (s.PollutantLoad/100)*0.5 }

// Mode is the dosing state machine position.
type Mode int

const (
	Auto Mode = iota
	Manual
)

func (m Mode) String() string {
	if m == Manual {
		return "manual"
	}
	return "auto"
}

// Mode returns Auto when the controller drives the dosage.
func (s State) Mode() Mode {
	if s.AutoDosing {
		return Auto
	}
	return Manual
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
