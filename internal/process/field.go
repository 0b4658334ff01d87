package process

import (
	"fmt"
	"math"
	"strings"
)

// Field names a state member.
type Field int

const (
	FieldPollutantLoad Field = iota
	FieldDosage
	FieldFlowRate
	FieldPH
	FieldTurbidity
	FieldDissolvedOxygen
	FieldRecoveryRate
)

// Bounds describes an editable field's slider.
type Bounds struct {
	Min, Max, Step float64
	Unit           string
}

var fieldNames = map[Field]string{
	FieldPollutantLoad:   "pollutantLoad",
	FieldDosage:          "dosage",
	FieldFlowRate:        "flowRate",
	FieldPH:              "ph",
	FieldTurbidity:       "turbidity",
	FieldDissolvedOxygen: "dissolvedOxygen",
	FieldRecoveryRate:    "recoveryRate",
}

var fieldAliases = map[string]Field{
	"load":           FieldPollutantLoad,
	"pollutant_load": FieldPollutantLoad,
	"dose":           FieldDosage,
	"flow":           FieldFlowRate,
	"flow_rate":      FieldFlowRate,
	"do":             FieldDissolvedOxygen,
	"recovery":       FieldRecoveryRate,
}

var editable = map[Field]Bounds{
	FieldPollutantLoad: {Min: MinPollutantLoad, Max: MaxPollutantLoad, Step: 1, Unit: "%"},
	FieldDosage:        {Min: MinDosage, Max: MaxDosage, Step: 0.1, Unit: "g/L"},
	FieldFlowRate:      {Min: MinFlowRate, Max: MaxFlowRate, Step: 5, Unit: "L/min"},
	FieldPH:            {Min: MinPH, Max: MaxPH, Step: 0.1, Unit: ""},
}

// EditableFields lists the operator-settable fields in panel order.
var EditableFields = []Field{FieldPollutantLoad, FieldFlowRate, FieldPH, FieldDosage}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Bounds returns the slider range of an editable field.
func (f Field) Bounds() (Bounds, bool) {
	b, ok := editable[f]
	return b, ok
}

// ParseField accepts the JSON name of a field or a short alias, in any case.
func ParseField(name string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if strings.ToLower(n) == key {
			return f, nil
		}
	}
	if f, ok := fieldAliases[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Get returns the value of field f.
func (s State) Get(f Field) (float64, error) {
	switch f {
	case FieldPollutantLoad:
		return s.PollutantLoad, nil
	case FieldDosage:
		return s.Dosage, nil
	case FieldFlowRate:
		return s.FlowRate, nil
	case FieldPH:
		return s.PH, nil
	case FieldTurbidity:
		return s.Turbidity, nil
	case FieldDissolvedOxygen:
		return s.DissolvedOxygen, nil
	case FieldRecoveryRate:
		return s.RecoveryRate, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownField, f)
}

// ApplyUserEdit sets an editable field, clamped to its domain. Editing the
// dosage switches the line to manual dosing. On error prev is returned
// unchanged.
func ApplyUserEdit(prev State, f Field, value float64) (State, error) {
	if _, known := fieldNames[f]; !known {
		return prev, fmt.Errorf("%w: %v", ErrUnknownField, f)
	}
	b, ok := editable[f]
	if !ok {
		return prev, fmt.Errorf("%w: %v", ErrReadOnlyField, f)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return prev, fmt.Errorf("%w: %v=%f", ErrInvalidValue, f, value)
	}

	next := prev.Clone()
	value = clamp(value, b.Min, b.Max)
	switch f {
	case FieldPollutantLoad:
		next.PollutantLoad = value
	case FieldDosage:
		next.Dosage = value
		next.AutoDosing = false
	case FieldFlowRate:
		next.FlowRate = value
	case FieldPH:
		next.PH = value
	}
	return next, nil
}

// ToggleAutoDosing flips between controller-driven and manual dosing.
func ToggleAutoDosing(prev State) State {
	next := prev.Clone()
	next.AutoDosing = !prev.AutoDosing
	return next
}
