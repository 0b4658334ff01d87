package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

func testSamples() []Sample {
	a := process.Default()
	b := process.Tick(a, process.Silent)
	b.PollutantLoad = 80
	b.Alerts = []string{process.AlertHighContamination}
	b.AutoDosing = false
	return []Sample{
		{Tick: 1, Elapsed: 0, State: a},
		{Tick: 2, Elapsed: time.Second, State: b},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Preset:   "storm",
		Seed:     42,
		Interval: time.Second,
		Savings:  "1450100",
		Metrics:  map[string]float64{"mean_turbidity": 7.5},
	}
	runID, err := st.Save(meta, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != runID || loaded.Preset != "storm" || loaded.Seed != 42 {
		t.Errorf("unexpected metadata: %+v", loaded)
	}
	if loaded.Ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", loaded.Ticks)
	}
	if loaded.Metrics["mean_turbidity"] != 7.5 {
		t.Errorf("expected mean_turbidity 7.5, got %f", loaded.Metrics["mean_turbidity"])
	}

	cols, err := st.LoadColumns(runID)
	if err != nil {
		t.Fatalf("load columns failed: %v", err)
	}
	if len(cols["turbidity"]) != 2 {
		t.Fatalf("expected 2 turbidity samples, got %d", len(cols["turbidity"]))
	}
	if cols["pollutant_load"][1] != 80 {
		t.Errorf("pollutant_load[1] = %f, want 80", cols["pollutant_load"][1])
	}
	if cols["auto_dosing"][0] != 1 || cols["auto_dosing"][1] != 0 {
		t.Errorf("auto_dosing = %v", cols["auto_dosing"])
	}
	if cols["elapsed"][1] != 1 {
		t.Errorf("elapsed[1] = %f, want 1", cols["elapsed"][1])
	}
	if _, ok := cols["alerts"]; ok {
		t.Error("alerts column should be omitted")
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	older := time.Now().Add(-time.Hour)
	if _, err := st.Save(RunMetadata{Timestamp: time.Now()}, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Timestamp: older}, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs not sorted oldest first")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on missing dir = %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{}, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "samples.csv")); os.IsNotExist(err) {
		t.Error("samples.csv not created")
	}
}

func TestStoreNotFound(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load err = %v, want ErrRunNotFound", err)
	}
	if _, err := st.LoadColumns("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadColumns err = %v, want ErrRunNotFound", err)
	}
}

func TestRecorder(t *testing.T) {
	start := time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC)
	now := start
	u := sim.New(process.Default(), sim.WithNoise(process.Silent), sim.WithClock(func() time.Time { return now }))

	rec := NewRecorder()
	u.Subscribe(rec)

	u.Tick()
	now = now.Add(time.Second)
	_, _ = u.ApplyUserEdit(process.FieldFlowRate, 190)
	u.Tick()
	now = now.Add(time.Second)
	u.Tick()

	samples := rec.Samples()
	if len(samples) != 3 || rec.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0].Elapsed != 0 || samples[2].Elapsed != 2*time.Second {
		t.Errorf("elapsed = %s, %s", samples[0].Elapsed, samples[2].Elapsed)
	}
	if samples[1].State.FlowRate != 190 {
		t.Errorf("edit not reflected in next tick: %f", samples[1].State.FlowRate)
	}
	if samples[2].Tick != 3 {
		t.Errorf("tick = %d, want 3", samples[2].Tick)
	}
}
