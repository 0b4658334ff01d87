// Package store writes the operator report: the snapshot behind the
// dashboard's export action, rendered as indented JSON.
package store

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/kinetics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

type Report struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	Tick         uint64             `json:"tick"`
	Mode         string             `json:"mode"`
	State        process.State      `json:"state"`
	Flocculating bool               `json:"flocculating"`
	Warning      bool               `json:"turbidity_warning"`
	Kinetics     []kinetics.Point   `json:"kinetics"`
	Economics    economics.Summary  `json:"economics"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// NewReport assembles a report from a snapshot and the panels observing it.
func NewReport(snap sim.Snapshot, econ economics.Summary, metrics map[string]float64) Report {
	s := snap.State
	return Report{
		GeneratedAt:  snap.At,
		Tick:         snap.Tick,
		Mode:         s.Mode().String(),
		State:        s,
		Flocculating: s.Flocculating(),
		Warning:      s.TurbidityWarning(),
		Kinetics:     kinetics.Curve(s.PollutantLoad, s.Dosage),
		Economics:    econ,
		Metrics:      metrics,
	}
}

func ExportJSON(path string, r Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Write(file, r)
}

func ExportJSONStdout(r Report) error {
	return Write(os.Stdout, r)
}

func Write(w io.Writer, r Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
