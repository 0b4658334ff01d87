package economics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

func snapshot(cause sim.Cause, flow, recovery float64) sim.Snapshot {
	s := process.Default()
	s.FlowRate = flow
	s.RecoveryRate = recovery
	return sim.Snapshot{Cause: cause, State: s}
}

func TestLedgerAccruesOnTicks(t *testing.T) {
	l := NewLedger(DefaultParams(), process.Constant(0))
	assert.True(t, l.Savings().Equal(InitialSavings))

	l.OnSnapshot(snapshot(sim.CauseTick, 100, 100))
	assert.Equal(t, "1450050", l.Savings().String())

	l.OnSnapshot(snapshot(sim.CauseTick, 120, 50))
	assert.Equal(t, "1450080", l.Savings().String())
	assert.Equal(t, uint64(2), l.Summary().Ticks)
}

func TestLedgerIgnoresEdits(t *testing.T) {
	l := NewLedger(DefaultParams(), process.Constant(0))
	l.OnSnapshot(snapshot(sim.CauseEdit, 200, 99))
	l.OnSnapshot(snapshot(sim.CauseToggle, 200, 99))
	assert.True(t, l.Savings().Equal(InitialSavings))

	// The edit is still reflected in the cost panel.
	assert.Equal(t, RecoveredValue(99, 200).String(), l.Summary().RecoveredValue.String())
}

func TestLedgerJitter(t *testing.T) {
	p := DefaultParams()
	l := NewLedger(p, process.Constant(0.5))
	l.OnSnapshot(snapshot(sim.CauseTick, 100, 100))
	assert.Equal(t, "1450075", l.Savings().String())
}

func TestLedgerWithUpdater(t *testing.T) {
	u := sim.New(process.Default(), sim.WithNoise(process.Silent))
	l := NewLedger(DefaultParams(), process.Constant(0))
	cancel := u.Subscribe(l)
	defer cancel()

	for i := 0; i < 10; i++ {
		u.Tick()
	}

	// 120 L/min at 99 % recovery accrues 59.4 IDR per tick.
	want := InitialSavings.Add(decimal.NewFromFloat(59.4).Mul(decimal.NewFromInt(10)))
	require.True(t, l.Savings().Equal(want), "savings = %s, want %s", l.Savings(), want)
}

func TestMagnaCost(t *testing.T) {
	assert.Equal(t, "5200", MagnaCost(0, ConventionalCost).String())
	assert.Equal(t, "1200", MagnaCost(100, ConventionalCost).String())
	assert.Equal(t, "1280", MagnaCost(98, ConventionalCost).String())
}

func TestROIAndRecoveredValue(t *testing.T) {
	assert.InDelta(t, 44.55, ROI(99), 1e-9)
	assert.Equal(t, "5.94", RecoveredValue(99, 120).String())
	assert.Equal(t, "0", RecoveredValue(0, 120).String())
}

func TestEvaluate(t *testing.T) {
	s := process.Default()
	sum := Evaluate(s, ConventionalCost)
	assert.True(t, sum.ConventionalCost.Equal(ConventionalCost))
	assert.True(t, sum.MagnaCost.LessThan(sum.ConventionalCost))
	assert.InDelta(t, ROI(s.RecoveryRate), sum.ROI, 1e-12)
}
