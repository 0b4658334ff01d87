package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

func testReport() Report {
	u := sim.New(process.Default(), sim.WithNoise(process.Silent))
	snap, _ := u.ApplyUserEdit(process.FieldDosage, 1.5)
	econ := economics.Evaluate(snap.State, economics.ConventionalCost)
	return NewReport(snap, econ, map[string]float64{"alert_rate": 0})
}

func TestNewReport(t *testing.T) {
	r := testReport()
	if r.Mode != "manual" {
		t.Errorf("mode = %s, want manual", r.Mode)
	}
	if !r.Flocculating {
		t.Error("1.5 g/L at 50 % load should flocculate")
	}
	if len(r.Kinetics) != 13 {
		t.Errorf("expected 13 kinetic points, got %d", len(r.Kinetics))
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testReport()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	state, ok := decoded["state"].(map[string]any)
	if !ok {
		t.Fatal("missing state")
	}
	if state["dosage"] != 1.5 || state["isAutoDosing"] != false {
		t.Errorf("state = %v", state)
	}
	econ := decoded["economics"].(map[string]any)
	if _, ok := econ["magnaCost"]; !ok {
		t.Error("missing magnaCost")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := ExportJSON(path, testReport()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Errorf("report not written: %v", err)
	}
}
