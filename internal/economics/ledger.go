// Package economics tracks the techno-economic figures of the line: the
// running OPEX savings and the per-cubic-metre cost comparison.
package economics

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

var (
	// InitialSavings is the IDR balance the ledger opens with.
	InitialSavings = decimal.NewFromInt(1_450_000)
	// ConventionalCost is the IDR/m³ of a conventional coagulation plant.
	ConventionalCost = decimal.NewFromInt(5000)

	magnaBaseline = decimal.NewFromInt(200)
)

// Params configures a Ledger.
type Params struct {
	InitialSavings   decimal.Decimal
	ConventionalCost decimal.Decimal
	Jitter           float64 // max random IDR added per tick
}

func DefaultParams() Params {
	return Params{InitialSavings: InitialSavings, ConventionalCost: ConventionalCost, Jitter: 50}
}

// Summary is a point-in-time economics panel.
type Summary struct {
	Savings          decimal.Decimal `json:"savings"`          // IDR
	ConventionalCost decimal.Decimal `json:"conventionalCost"` // IDR/m³
	MagnaCost        decimal.Decimal `json:"magnaCost"`        // IDR/m³
	ROI              float64         `json:"roi"`              // %
	RecoveredValue   decimal.Decimal `json:"recoveredValue"`   // USD/h
	Ticks            uint64          `json:"ticks"`
}

// Ledger accumulates savings on every clock tick.
type Ledger struct {
	mu      sync.Mutex
	params  Params
	noise   process.Source
	savings decimal.Decimal
	last    process.State
	ticks   uint64
}

func NewLedger(p Params, noise process.Source) *Ledger {
	return &Ledger{params: p, noise: noise, savings: p.InitialSavings, last: process.Default()}
}

// OnSnapshot implements sim.Observer. Only clock ticks accrue savings.
func (l *Ledger) OnSnapshot(s sim.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = s.State
	if s.Cause != sim.CauseTick {
		return
	}
	l.savings = l.savings.Add(l.increment(s.State))
	l.ticks++
}

func (l *Ledger) increment(s process.State) decimal.Decimal {
	efficiency := s.RecoveryRate / 100
	inc := s.FlowRate*0.5*efficiency + l.noise.Float64()*l.params.Jitter
	return decimal.NewFromFloat(inc)
}

// Savings returns the cumulative OPEX savings in IDR.
func (l *Ledger) Savings() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.savings
}

// Summary evaluates the panel against the last observed state.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := Evaluate(l.last, l.params.ConventionalCost)
	sum.Savings = l.savings
	sum.Ticks = l.ticks
	return sum
}

// Evaluate computes the stateless figures for s.
func Evaluate(s process.State, conventional decimal.Decimal) Summary {
	return Summary{
		ConventionalCost: conventional,
		MagnaCost:        MagnaCost(s.RecoveryRate, conventional),
		ROI:              ROI(s.RecoveryRate),
		RecoveredValue:   RecoveredValue(s.RecoveryRate, s.FlowRate),
	}
}

// MagnaCost drops with recovery: conventional*(1 - 0.8*recovery/100) + 200.
func MagnaCost(recovery float64, conventional decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromFloat(1 - (recovery/100)*0.8)
	return conventional.Mul(factor).Add(magnaBaseline).Round(2)
}

// ROI returns the estimated return on investment in percent.
func ROI(recovery float64) float64 { return recovery * 0.45 }

// RecoveredValue returns the USD/h of recovered adsorbent.
func RecoveredValue(recovery, flow float64) decimal.Decimal {
	return decimal.NewFromFloat(recovery * flow * 0.05 / 100).Round(2)
}
