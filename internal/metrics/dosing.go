package metrics

import "github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"

// AdsorbentUse is the mean dose applied, g/L.
type AdsorbentUse struct {
	sum     float64
	samples int
}

func NewAdsorbentUse() *AdsorbentUse { return &AdsorbentUse{} }

func (a *AdsorbentUse) Name() string { return "adsorbent_use" }

func (a *AdsorbentUse) Observe(s process.State) {
	a.sum += s.Dosage
	a.samples++
}

func (a *AdsorbentUse) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *AdsorbentUse) Reset() {
	a.sum = 0
	a.samples = 0
}

// AlertRate is the fraction of ticks that raised at least one alert.
type AlertRate struct {
	alerted int
	samples int
}

func NewAlertRate() *AlertRate { return &AlertRate{} }

func (a *AlertRate) Name() string { return "alert_rate" }

func (a *AlertRate) Observe(s process.State) {
	a.samples++
	if len(s.Alerts) > 0 {
		a.alerted++
	}
}

func (a *AlertRate) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.alerted) / float64(a.samples)
}

func (a *AlertRate) Reset() {
	a.alerted = 0
	a.samples = 0
}

// ManualShare is the fraction of ticks run with manual dosing.
type ManualShare struct {
	manual  int
	samples int
}

func NewManualShare() *ManualShare { return &ManualShare{} }

func (m *ManualShare) Name() string { return "manual_share" }

func (m *ManualShare) Observe(s process.State) {
	m.samples++
	if s.Mode() == process.Manual {
		m.manual++
	}
}

func (m *ManualShare) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.manual) / float64(m.samples)
}

func (m *ManualShare) Reset() {
	m.manual = 0
	m.samples = 0
}
