// Package experiment runs the treatment line headless for a fixed number of
// ticks and collects what a session produces: metrics, economics and the
// recorded samples.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/config"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/metrics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/storage"
)

type Config struct {
	Sim    *config.Config
	Ticks  int
	Preset string
	// Noise replaces the seeded source when set.
	Noise process.Source
	// Observers are subscribed after the built-in ones.
	Observers []sim.Observer
	// Schedule holds operator actions applied between ticks.
	Schedule []Step
	Logger    *slog.Logger
}

// Step is an operator action applied once After ticks have elapsed, before
// the next tick. After 0 acts on the initial state.
type Step struct {
	After  int
	Action Action
}

// Action is either an edit of Field or a toggle of auto dosing.
type Action struct {
	Toggle bool
	Field  process.Field
	Value  float64
}

func (a Action) apply(u *sim.Updater) error {
	if a.Toggle {
		u.ToggleAutoDosing()
		return nil
	}
	_, err := u.ApplyUserEdit(a.Field, a.Value)
	return err
}

type Result struct {
	Final     sim.Snapshot
	Metrics   map[string]float64
	Economics economics.Summary
	Samples   []storage.Sample
}

type Experiment struct {
	cfg Config
}

func New(cfg Config) *Experiment {
	if cfg.Sim == nil {
		cfg.Sim = config.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Experiment{cfg: cfg}
}

// Run applies Ticks transitions back to back. Time is virtual: each tick
// advances the snapshot clock by the configured interval.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.cfg.Ticks <= 0 {
		return nil, fmt.Errorf("experiment: ticks must be positive, got %d", e.cfg.Ticks)
	}
	cfg := e.cfg.Sim
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}

	now := time.Unix(0, 0).UTC()
	opts := []sim.Option{
		sim.WithModel(cfg.GetModel()),
		sim.WithInterval(cfg.Interval),
		sim.WithLogger(e.cfg.Logger),
		sim.WithClock(func() time.Time { return now }),
	}
	if e.cfg.Noise != nil {
		opts = append(opts, sim.WithNoise(e.cfg.Noise))
	} else {
		opts = append(opts, sim.WithSeed(cfg.Seed))
	}
	u := sim.New(cfg.GetInitState(), opts...)

	ledgerNoise := e.cfg.Noise
	if ledgerNoise == nil {
		ledgerNoise = rand.New(rand.NewSource(cfg.Seed + 1))
	}
	collector := metrics.NewCollector(metrics.Defaults()...)
	ledger := economics.NewLedger(cfg.LedgerParams(), ledgerNoise)
	recorder := storage.NewRecorder()
	u.Subscribe(collector)
	u.Subscribe(ledger)
	u.Subscribe(recorder)
	for _, obs := range e.cfg.Observers {
		u.Subscribe(obs)
	}

	schedule := append([]Step(nil), e.cfg.Schedule...)
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].After < schedule[j].After })

	var last sim.Snapshot
	next := 0
	for i := 0; i < e.cfg.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for ; next < len(schedule) && schedule[next].After <= i; next++ {
			if err := schedule[next].Action.apply(u); err != nil {
				return nil, fmt.Errorf("experiment: step at tick %d: %w", schedule[next].After, err)
			}
		}
		now = now.Add(cfg.Interval)
		last = u.Tick()
	}

	return &Result{
		Final:     last,
		Metrics:   collector.Values(),
		Economics: ledger.Summary(),
		Samples:   recorder.Samples(),
	}, nil
}

// Metadata describes r for storage.Store.Save.
func (e *Experiment) Metadata(r *Result) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:     e.cfg.Preset,
		Seed:       e.cfg.Sim.Seed,
		Interval:   e.cfg.Sim.Interval,
		Ticks:      len(r.Samples),
		Savings:    r.Economics.Savings.StringFixed(0),
		Metrics:    r.Metrics,
		FinalState: r.Final.State,
	}
}
