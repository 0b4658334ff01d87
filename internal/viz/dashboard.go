package viz

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/shopspring/decimal"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/kinetics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/metrics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/store"
)

const (
	historyCapacity = 120
	barWidth        = 16
	graphWidth      = 48
)

// Sensor figures are fixed by the hardware.
const (
	uvWavelength = "254 nm"
	fieldTesla   = "0.5 T"
)

// Options configures a Dashboard.
type Options struct {
	Ledger    *economics.Ledger  // optional
	Collector *metrics.Collector // optional
	ExportDir string
	Theme     string
}

// Dashboard is the Bubble Tea model of the operator console.
type Dashboard struct {
	updater *sim.Updater
	opts    Options
	feed    *feed
	cancel  func()

	snap     sim.Snapshot
	history  []float64
	recovery []float64
	selected int
	status   string
	theme    Theme
	styles   Styles
	width    int
}

// NewDashboard subscribes to u. Close releases the subscription.
func NewDashboard(u *sim.Updater, opts Options) *Dashboard {
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	theme := GetTheme(opts.Theme)
	d := &Dashboard{
		updater:  u,
		opts:     opts,
		feed:     newFeed(),
		snap:     u.Snapshot(),
		history:  make([]float64, 0, historyCapacity),
		recovery: make([]float64, 0, historyCapacity),
		theme:    theme,
		styles:   NewStyles(theme),
	}
	d.record(d.snap.State)
	d.cancel = u.Subscribe(d.feed)
	return d
}

func (d *Dashboard) Close() {
	d.cancel()
	d.feed.close()
}

func (d *Dashboard) Init() tea.Cmd {
	return d.feed.wait()
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
	case snapshotMsg:
		d.observe(sim.Snapshot(msg))
		return d, d.feed.wait()
	case tea.KeyMsg:
		return d, d.handleKey(msg)
	}
	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		d.Close()
		return tea.Quit
	case "tab":
		d.selected = (d.selected + 1) % len(process.EditableFields)
	case "shift+tab":
		d.selected = (d.selected + len(process.EditableFields) - 1) % len(process.EditableFields)
	case "right", "l":
		d.nudge(1)
	case "left", "h":
		d.nudge(-1)
	case "a":
		d.observe(d.updater.ToggleAutoDosing())
		d.status = "auto dosing " + strings.ToLower(d.snap.State.Mode().String())
	case "e":
		d.export()
	case "t":
		d.theme = d.theme.next()
		d.styles = NewStyles(d.theme)
	}
	return nil
}

// nudge moves the selected control by one slider step.
func (d *Dashboard) nudge(dir float64) {
	f := process.EditableFields[d.selected]
	b, _ := f.Bounds()
	cur, _ := d.snap.State.Get(f)
	snap, err := d.updater.ApplyUserEdit(f, cur+dir*b.Step)
	if err != nil {
		d.status = err.Error()
		return
	}
	d.observe(snap)
}

// observe keeps the newest snapshot. Snapshots can arrive twice, once from
// the direct call and once from the feed.
func (d *Dashboard) observe(s sim.Snapshot) {
	if s.Seq < d.snap.Seq {
		return
	}
	fresh := s.Seq > d.snap.Seq
	d.snap = s
	if fresh && s.Cause == sim.CauseTick {
		d.record(s.State)
	}
}

func (d *Dashboard) record(s process.State) {
	d.history = appendCapped(d.history, s.Turbidity)
	d.recovery = appendCapped(d.recovery, s.RecoveryRate)
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (d *Dashboard) export() {
	report := store.NewReport(d.snap, d.economics(), d.metricValues())
	path := filepath.Join(d.opts.ExportDir, fmt.Sprintf("aquafloc_report_%d.json", d.snap.Tick))
	if err := store.ExportJSON(path, report); err != nil {
		d.status = "export failed: " + err.Error()
		return
	}
	d.status = "report saved to " + path
}

func (d *Dashboard) economics() economics.Summary {
	if d.opts.Ledger != nil {
		return d.opts.Ledger.Summary()
	}
	return economics.Evaluate(d.snap.State, economics.ConventionalCost)
}

func (d *Dashboard) metricValues() map[string]float64 {
	if d.opts.Collector == nil {
		return nil
	}
	return d.opts.Collector.Values()
}

func (d *Dashboard) View() string {
	st := d.styles
	s := d.snap.State

	var head strings.Builder
	head.WriteString(st.Title.Render("AQUA-FLOC MAGNA"))
	head.WriteString(st.Subtle.Render("  magnetic adsorbent treatment line  "))
	if s.AutoDosing {
		head.WriteString(st.Auto.Render("● AUTO"))
	} else {
		head.WriteString(st.Manual.Render("● MANUAL"))
	}
	head.WriteString(st.Subtle.Render(fmt.Sprintf("  tick %d", d.snap.Tick)))
	header := st.Header.Render(head.String())

	left := lipgloss.JoinVertical(lipgloss.Left,
		st.Panel.Render(d.controlsView()),
		st.Panel.Render(d.alertsView()),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		st.Panel.Render(d.sensorsView()),
		st.Panel.Render(d.chartsView()),
		st.Panel.Render(d.economicsView()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	footer := st.KeyHint.Render("tab:Select ←→:Adjust a:Auto dosing e:Export t:Theme q:Quit")
	if d.status != "" {
		footer += "\n" + st.Subtle.Render(d.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (d *Dashboard) controlsView() string {
	st := d.styles
	s := d.snap.State

	var b strings.Builder
	b.WriteString(st.Title.Render("CONTROL PANEL") + "\n\n")
	for i, f := range process.EditableFields {
		bounds, _ := f.Bounds()
		v, _ := s.Get(f)
		pct := (v - bounds.Min) / (bounds.Max - bounds.Min)
		label := controlLabel(f)
		line := fmt.Sprintf("%s %6.1f %s", st.Bar(pct, barWidth), v, bounds.Unit)
		if i == d.selected {
			b.WriteString(st.Selected.Render("> "+fmt.Sprintf("%-13s", label)) + line + "\n")
		} else {
			b.WriteString("  " + st.Label.Render(label) + line + "\n")
		}
	}
	b.WriteString("\n  " + st.Label.Render("Auto dosing"))
	if s.AutoDosing {
		b.WriteString(st.Auto.Render("ON"))
	} else {
		b.WriteString(st.Manual.Render("OFF"))
	}
	if s.Flocculating() {
		b.WriteString("\n  " + st.Subtle.Render("flocculation active"))
	}
	return b.String()
}

func controlLabel(f process.Field) string {
	switch f {
	case process.FieldPollutantLoad:
		return "Pollutant"
	case process.FieldFlowRate:
		return "Flow rate"
	case process.FieldPH:
		return "pH"
	case process.FieldDosage:
		return "Dosage"
	}
	return f.String()
}

func (d *Dashboard) alertsView() string {
	st := d.styles
	var b strings.Builder
	b.WriteString(st.Title.Render("ALERT LOG") + "\n")
	if len(d.snap.State.Alerts) == 0 {
		b.WriteString(st.Subtle.Render("System nominal..."))
		return b.String()
	}
	for _, a := range d.snap.State.Alerts {
		b.WriteString(st.Alert.Render("! "+a) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dashboard) sensorsView() string {
	st := d.styles
	s := d.snap.State

	turbidity := st.Value.Render(fmt.Sprintf("%.1f NTU", s.Turbidity))
	if s.TurbidityWarning() {
		turbidity = st.Warning.Render(fmt.Sprintf("%.1f NTU ▲", s.Turbidity))
	}
	cells := []string{
		sensorCell(st, "Turbidity", turbidity),
		sensorCell(st, "Dissolved O₂", st.Value.Render(fmt.Sprintf("%.2f mg/L", s.DissolvedOxygen))),
		sensorCell(st, "UV lamp", st.Value.Render(uvWavelength)),
		sensorCell(st, "Mag. field", st.Value.Render(fieldTesla)),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)

	recovery := st.Label.Render("Recovery") + st.Gauge(s.RecoveryRate/100, barWidth) +
		st.Value.Render(fmt.Sprintf(" %.1f%%", s.RecoveryRate)) + "  " + st.Sparkline(d.recovery, 24)
	return row + "\n" + recovery
}

func sensorCell(st Styles, label, value string) string {
	return lipgloss.NewStyle().Width(16).Render(st.Subtle.Render(label) + "\n" + value)
}

func (d *Dashboard) chartsView() string {
	st := d.styles
	s := d.snap.State

	var b strings.Builder
	if len(d.history) > 1 {
		chart := asciigraph.Plot(d.history,
			asciigraph.Height(6), asciigraph.Width(graphWidth),
			asciigraph.Precision(1), asciigraph.Caption("Turbidity (NTU)"))
		b.WriteString(st.Graph.Render(chart) + "\n\n")
	} else {
		b.WriteString(st.Subtle.Render("waiting for sensor data...") + "\n\n")
	}

	curve := kinetics.Concentrations(kinetics.Curve(s.PollutantLoad, s.Dosage))
	caption := fmt.Sprintf("Adsorption C(t), 0-%.0f min, t½ %.1f min", kinetics.Horizon, kinetics.HalfLife(s.Dosage))
	chart := asciigraph.Plot(curve,
		asciigraph.Height(6), asciigraph.Width(graphWidth),
		asciigraph.Precision(0), asciigraph.Caption(caption))
	b.WriteString(st.Graph.Render(chart))
	return b.String()
}

func (d *Dashboard) economicsView() string {
	st := d.styles
	e := d.economics()

	var b strings.Builder
	b.WriteString(st.Title.Render("TECHNO-ECONOMICS") + "\n")
	b.WriteString(st.Label.Render("OPEX savings") + st.Value.Render("IDR "+FormatIDR(e.Savings)) + "\n")
	b.WriteString(st.Label.Render("Cost / m³") +
		st.Value.Render("IDR "+FormatIDR(e.MagnaCost)) +
		st.Subtle.Render(" vs IDR "+FormatIDR(e.ConventionalCost)+" conventional") + "\n")
	b.WriteString(st.Label.Render("ROI") + st.Value.Render(fmt.Sprintf("%.1f%%", e.ROI)) + "\n")
	b.WriteString(st.Label.Render("Recovered") + st.Value.Render("$"+e.RecoveredValue.StringFixed(2)+"/h"))
	return b.String()
}

// FormatIDR renders whole rupiah with thousands separators.
func FormatIDR(d decimal.Decimal) string {
	digits := d.Round(0).Abs().String()
	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
