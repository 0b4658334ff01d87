package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

// Columns is the samples.csv header.
var Columns = []string{
	"tick", "elapsed", "pollutant_load", "dosage", "flow_rate", "ph",
	"turbidity", "dissolved_oxygen", "recovery_rate", "auto_dosing", "alerts",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Interval   time.Duration      `json:"interval"`
	Ticks      int                `json:"ticks"`
	Savings    string             `json:"savings"`
	Metrics    map[string]float64 `json:"metrics"`
	FinalState process.State      `json:"final_state"`
}

// Sample is one recorded tick.
type Sample struct {
	Tick    uint64
	Elapsed time.Duration
	State   process.State
}

func newRunID(now time.Time) string {
	return fmt.Sprintf("session_%s_%s", now.Format("20060102T150405"), uuid.NewString()[:8])
}

// Save writes a run directory and returns its id. meta.ID and meta.Timestamp
// are filled in when empty.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = newRunID(meta.Timestamp)
	}
	meta.Ticks = len(samples)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSamples(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, smp := range samples {
		st := smp.State
		row := []string{
			strconv.FormatUint(smp.Tick, 10),
			strconv.FormatFloat(smp.Elapsed.Seconds(), 'f', 3, 64),
			formatFloat(st.PollutantLoad),
			formatFloat(st.Dosage),
			formatFloat(st.FlowRate),
			formatFloat(st.PH),
			formatFloat(st.Turbidity),
			formatFloat(st.DissolvedOxygen),
			formatFloat(st.RecoveryRate),
			strconv.FormatBool(st.AutoDosing),
			strings.Join(st.Alerts, "|"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadColumns returns samples.csv as named numeric series. Boolean columns
// become 0/1; the alerts column is omitted.
func (s *Store) LoadColumns(runID string) (map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make(map[string][]float64)
	if len(records) == 0 {
		return cols, nil
	}
	header := records[0]
	for _, name := range header {
		if name != "alerts" {
			cols[name] = make([]float64, 0, len(records)-1)
		}
	}

	for _, record := range records[1:] {
		for j, raw := range record {
			if j >= len(header) || header[j] == "alerts" {
				continue
			}
			var val float64
			switch raw {
			case "true":
				val = 1
			case "false":
				val = 0
			default:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					continue
				}
				val = v
			}
			cols[header[j]] = append(cols[header[j]], val)
		}
	}
	return cols, nil
}
