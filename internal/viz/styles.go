package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from a Theme.
type Styles struct {
	Panel    lipgloss.Style
	Title    lipgloss.Style
	Header   lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Selected lipgloss.Style
	Subtle   lipgloss.Style
	KeyHint  lipgloss.Style
	Auto     lipgloss.Style
	Manual   lipgloss.Style
	Warning  lipgloss.Style
	Alert    lipgloss.Style
	Graph    lipgloss.Style

	barHigh lipgloss.Style
	barMid  lipgloss.Style
	barLow  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Label:    lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		Subtle:   lipgloss.NewStyle().Foreground(t.Muted),
		KeyHint:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Auto:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Manual:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Warning:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Alert:    lipgloss.NewStyle().Foreground(t.Error),
		Graph:    lipgloss.NewStyle().Foreground(t.Primary),

		barHigh: lipgloss.NewStyle().Foreground(t.Success),
		barMid:  lipgloss.NewStyle().Foreground(t.Warning),
		barLow:  lipgloss.NewStyle().Foreground(t.Error),
	}
}

// Bar renders a slider track with percent in [0,1] filled.
func (s Styles) Bar(percent float64, width int) string {
	filled := int(percent*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return s.Value.Render(strings.Repeat("█", filled)) + s.Subtle.Render(strings.Repeat("░", width-filled))
}

// Gauge is a bar colored by how healthy percent is.
func (s Styles) Gauge(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return s.barHigh.Render(bar)
	case percent > 0.4:
		return s.barMid.Render(bar)
	}
	return s.barLow.Render(bar)
}

// Sparkline renders values as a one-line bar strip of at most width cells.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return s.Subtle.Render(strings.Repeat("─", width))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return s.Graph.Render(b.String())
}

func (s Styles) Separator(width int) string {
	mid := width / 2
	return s.Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
