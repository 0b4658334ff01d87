package analysis

import (
	"math"
	"testing"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/control"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

func TestDescribe(t *testing.T) {
	st := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if st.N != 8 || st.Mean != 5 || st.StdDev != 2 || st.Min != 2 || st.Max != 9 {
		t.Errorf("Describe = %+v", st)
	}
	if empty := Describe(nil); !math.IsNaN(empty.Mean) || empty.N != 0 {
		t.Errorf("Describe(nil) = %+v", empty)
	}
}

func TestControllerResponse(t *testing.T) {
	d := control.DefaultDosing()

	// Replay the auto-dosing loop from 0.8 g/L toward 1.6 g/L.
	load := make([]float64, 60)
	dosage := make([]float64, 60)
	dose := 0.8
	for i := range load {
		load[i] = 80
		dose, _ = d.Compute(80, dose)
		dosage[i] = dose
	}

	r, err := ControllerResponse(load, dosage, d)
	if err != nil {
		t.Fatal(err)
	}
	if r.SettlingTick <= 0 || r.SettlingTick >= 60 {
		t.Errorf("settling tick = %d", r.SettlingTick)
	}
	if math.Abs(r.FinalError) > d.Deadband {
		t.Errorf("final error %v outside deadband", r.FinalError)
	}
	if r.PeakError < 0.7 {
		t.Errorf("peak error = %v, want about 0.72", r.PeakError)
	}
	if r.Adjustments != r.SettlingTick {
		t.Errorf("adjustments = %d, settling = %d", r.Adjustments, r.SettlingTick)
	}
}

func TestControllerResponseNeverSettles(t *testing.T) {
	r, err := ControllerResponse([]float64{100, 100}, []float64{0.1, 0.1}, control.DefaultDosing())
	if err != nil {
		t.Fatal(err)
	}
	if r.SettlingTick != -1 {
		t.Errorf("settling tick = %d, want -1", r.SettlingTick)
	}
	if _, err := ControllerResponse([]float64{1}, nil, control.DefaultDosing()); err == nil {
		t.Error("length mismatch should fail")
	}
}

func TestDominantPeriod(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 10 + math.Sin(2*math.Pi*float64(i)/8)
	}
	if p := DominantPeriod(data); math.Abs(p-8) > 1e-9 {
		t.Errorf("period = %v, want 8", p)
	}
	if p := DominantPeriod([]float64{3, 3, 3, 3}); p != 0 {
		t.Errorf("flat signal period = %v, want 0", p)
	}
}

func TestPowerSpectrumPads(t *testing.T) {
	if got := len(PowerSpectrum(make([]float64, 100))); got != 64 {
		t.Errorf("spectrum length = %d, want 64", got)
	}
}

func TestSweep(t *testing.T) {
	pts := Sweep(process.DefaultModel(), process.Default(), 0, 100, 5, 80, 20, process.Silent)
	if len(pts) != 5 {
		t.Fatalf("points = %d, want 5", len(pts))
	}
	if pts[0].Load != 0 || pts[4].Load != 100 {
		t.Errorf("loads = %v .. %v", pts[0].Load, pts[4].Load)
	}
	for _, p := range pts {
		target := p.Load / 50
		if target >= process.MinDosage && math.Abs(p.Dosage-target) > 0.1+1e-9 {
			t.Errorf("load %v: dosage %v not settled near %v", p.Load, p.Dosage, target)
		}
		if p.Turbidity < 5 {
			t.Errorf("load %v: turbidity %v below baseline", p.Load, p.Turbidity)
		}
	}
	if pts[4].Alerts == 0 {
		t.Error("full load should alert while ramping")
	}
	if pts[1].Alerts != 0 {
		t.Error("load 25 should never alert")
	}
}
