package control

import (
	"math"
	"testing"
)

func TestDosingTarget(t *testing.T) {
	d := DefaultDosing()
	if got := d.Target(100); got != 2.0 {
		t.Errorf("Target(100) = %f, want 2.0", got)
	}
	if got := d.Target(0); got != 0 {
		t.Errorf("Target(0) = %f, want 0", got)
	}
}

func TestDosingCompute(t *testing.T) {
	d := DefaultDosing()

	tests := []struct {
		name      string
		load      float64
		dosage    float64
		want      float64
		adjusting bool
	}{
		{"below target", 100, 0.1, 0.1 + 0.1*(2.0-0.1), true},
		{"above target", 10, 1.0, 1.0 + 0.1*(0.2-1.0), true},
		{"inside deadband", 50, 1.05, 1.05, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, adjusting := d.Compute(tt.load, tt.dosage)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Compute = %f, want %f", got, tt.want)
			}
			if adjusting != tt.adjusting {
				t.Errorf("adjusting = %v, want %v", adjusting, tt.adjusting)
			}
		})
	}
}

func TestDosingNeverOvershoots(t *testing.T) {
	d := DefaultDosing()
	dosage := 0.1
	for i := 0; i < 100; i++ {
		next, _ := d.Compute(100, dosage)
		if next < dosage || next > 2.0 {
			t.Fatalf("step %d: %f -> %f leaves [%f, 2.0]", i, dosage, next, dosage)
		}
		dosage = next
	}
	if math.Abs(dosage-2.0) > d.Deadband {
		t.Errorf("final dosage %f not within deadband of 2.0", dosage)
	}
}

func TestDosingSetParam(t *testing.T) {
	d := DefaultDosing()
	if err := d.SetParam("Gain", 0.5); err != nil {
		t.Fatalf("SetParam failed: %v", err)
	}
	if d.GetParams()["Gain"] != 0.5 {
		t.Error("Gain not updated")
	}

	for _, tt := range []struct {
		name  string
		value float64
	}{
		{"Gain", 0},
		{"Gain", 1.5},
		{"LoadDivisor", -1},
		{"Deadband", -0.1},
		{"Bogus", 1},
	} {
		if err := d.SetParam(tt.name, tt.value); err == nil {
			t.Errorf("SetParam(%s, %f) expected error", tt.name, tt.value)
		}
	}
}

func TestDosingValidate(t *testing.T) {
	if err := DefaultDosing().Validate(); err != nil {
		t.Errorf("default params invalid: %v", err)
	}
	if err := (Dosing{LoadDivisor: 50, Deadband: 0.1, Gain: 0}).Validate(); err == nil {
		t.Error("expected error for zero gain")
	}
}
