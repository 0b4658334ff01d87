// Package automation runs scripted operator scenarios: a YAML file naming a
// starting preset, a tick budget and the edits an operator makes along the
// way.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/config"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/experiment"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted session.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Preset      string          `yaml:"preset"`
	Seed        int64           `yaml:"seed"`
	Ticks       int             `yaml:"ticks"`
	Events      []ScenarioEvent `yaml:"events"`
	SaveAs      string          `yaml:"save_as"`
}

// ScenarioEvent is one operator action. Exactly one of Set or Toggle is used.
type ScenarioEvent struct {
	At     int                `yaml:"at"`
	Set    map[string]float64 `yaml:"set"`
	Toggle bool               `yaml:"toggle"`
}

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("automation: parse scenario: %w", err)
	}
	if _, err := sc.Schedule(); err != nil {
		return nil, err
	}
	if sc.Ticks <= 0 {
		return nil, fmt.Errorf("%w: ticks must be positive, got %d", ErrInvalidScenario, sc.Ticks)
	}
	if sc.Preset != "" && config.GetPreset(sc.Preset) == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidScenario, sc.Preset)
	}
	return &sc, nil
}

// Schedule translates the events into experiment steps. Fields inside one
// event are applied in panel order.
func (sc *Scenario) Schedule() ([]experiment.Step, error) {
	var steps []experiment.Step
	for i, ev := range sc.Events {
		if ev.At < 0 {
			return nil, fmt.Errorf("%w: event %d: negative tick %d", ErrInvalidScenario, i+1, ev.At)
		}
		if ev.Toggle == (len(ev.Set) > 0) {
			return nil, fmt.Errorf("%w: event %d: needs exactly one of set or toggle", ErrInvalidScenario, i+1)
		}
		if ev.Toggle {
			steps = append(steps, experiment.Step{After: ev.At, Action: experiment.Action{Toggle: true}})
			continue
		}

		fields := make(map[process.Field]float64, len(ev.Set))
		for name, v := range ev.Set {
			f, err := process.ParseField(name)
			if err != nil {
				return nil, fmt.Errorf("%w: event %d: %w", ErrInvalidScenario, i+1, err)
			}
			if _, ok := f.Bounds(); !ok {
				return nil, fmt.Errorf("%w: event %d: %s is not editable", ErrInvalidScenario, i+1, f)
			}
			fields[f] = v
		}
		for _, f := range process.EditableFields {
			if v, ok := fields[f]; ok {
				steps = append(steps, experiment.Step{After: ev.At, Action: experiment.Action{Field: f, Value: v}})
			}
		}
	}
	return steps, nil
}

// RunScenario executes sc on top of base. The scenario's preset and seed win
// over base when set.
func RunScenario(ctx context.Context, sc *Scenario, base *config.Config, logger *slog.Logger) (*experiment.Experiment, *experiment.Result, error) {
	cfg := config.DefaultConfig()
	if base != nil {
		c := *base
		cfg = &c
	}
	if sc.Preset != "" {
		cfg.InitState = config.Presets[sc.Preset]
	}
	if sc.Seed != 0 {
		cfg.Seed = sc.Seed
	}

	steps, err := sc.Schedule()
	if err != nil {
		return nil, nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("running scenario", "name", sc.Name, "ticks", sc.Ticks, "events", len(sc.Events))

	exp := experiment.New(experiment.Config{
		Sim:      cfg,
		Ticks:    sc.Ticks,
		Preset:   sc.Preset,
		Schedule: steps,
		Logger:   logger,
	})
	res, err := exp.Run(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return exp, res, nil
}
