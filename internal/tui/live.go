// Package tui prints a plain-text live view of a running line, for terminals
// where the full dashboard is not wanted (`aquafloc run --live`, `serve`).
package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

const (
	barWidth    = 30
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws one frame per accepted snapshot. Frames arriving
// faster than frameRate are skipped.
type LiveRenderer struct {
	mu        sync.Mutex
	out       io.Writer
	title     string
	frameRate int
	lastFrame time.Time
	now       func() time.Time
	ansi      bool
}

func NewLiveRenderer(out io.Writer, title string, frameRate int) *LiveRenderer {
	return &LiveRenderer{out: out, title: title, frameRate: frameRate, now: time.Now, ansi: true}
}

// Plain disables cursor control, for logs and pipes.
func (r *LiveRenderer) Plain() *LiveRenderer {
	r.ansi = false
	return r
}

// OnSnapshot implements sim.Observer.
func (r *LiveRenderer) OnSnapshot(s sim.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.frameRate > 0 && !r.lastFrame.IsZero() && now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now
	io.WriteString(r.out, r.render(s))
}

func (r *LiveRenderer) render(snap sim.Snapshot) string {
	s := snap.State
	var b strings.Builder
	if r.ansi {
		b.WriteString(clearScreen)
	}
	fmt.Fprintf(&b, "  %s  tick=%d  %s\n", r.title, snap.Tick, strings.ToUpper(s.Mode().String()))
	b.WriteString("  " + strings.Repeat("-", barWidth+28) + "\n")

	turbidity := fmt.Sprintf("%.1f NTU", s.Turbidity)
	if s.TurbidityWarning() {
		turbidity += " !"
	}
	row(&b, "Pollutant", s.PollutantLoad/process.MaxPollutantLoad, fmt.Sprintf("%.0f %%", s.PollutantLoad))
	row(&b, "Dosage", s.Dosage/process.MaxDosage, fmt.Sprintf("%.2f g/L", s.Dosage))
	row(&b, "Turbidity", s.Turbidity/(2*process.TurbidityWarnLevel), turbidity)
	row(&b, "Dissolved O2", s.DissolvedOxygen/process.MaxDO, fmt.Sprintf("%.2f mg/L", s.DissolvedOxygen))
	row(&b, "Recovery", s.RecoveryRate/process.MaxRecovery, fmt.Sprintf("%.1f %%", s.RecoveryRate))

	b.WriteString("  " + strings.Repeat("-", barWidth+28) + "\n")
	if len(s.Alerts) == 0 {
		b.WriteString("  System nominal...\n")
	}
	for _, a := range s.Alerts {
		b.WriteString("  ! " + a + "\n")
	}
	return b.String()
}

func row(b *strings.Builder, label string, frac float64, value string) {
	frac = min(max(frac, 0), 1)
	filled := int(frac * barWidth)
	fmt.Fprintf(b, "  %-13s [%s%s] %s\n", label, strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), value)
}

func (r *LiveRenderer) Start() {
	if r.ansi {
		io.WriteString(r.out, hideCursor)
	}
}

func (r *LiveRenderer) Stop() {
	if r.ansi {
		io.WriteString(r.out, showCursor)
	}
}
