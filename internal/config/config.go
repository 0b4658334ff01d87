package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/control"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

const (
	DefaultInterval      = time.Second
	DefaultDataDir       = ".aquafloc"
	DefaultListen        = ":8080"
	DefaultInitSavings   = 1_450_000
	DefaultConventional  = 5000
	DefaultSavingsJitter = 50.0
)

type Config struct {
	Interval  time.Duration   `yaml:"interval"`
	Seed      int64           `yaml:"seed"`
	DataDir   string          `yaml:"data_dir"`
	Listen    string          `yaml:"listen"`
	InitState InitStateConfig `yaml:"init_state"`
	Dosing    DosingConfig    `yaml:"dosing"`
	Economics EconomicsConfig `yaml:"economics"`
}

type InitStateConfig struct {
	PollutantLoad float64 `yaml:"pollutant_load"`
	Dosage        float64 `yaml:"dosage"`
	FlowRate      float64 `yaml:"flow_rate"`
	PH            float64 `yaml:"ph"`
	AutoDosing    bool    `yaml:"auto_dosing"`
}

type DosingConfig struct {
	LoadDivisor float64 `yaml:"load_divisor"`
	Deadband    float64 `yaml:"deadband"`
	Gain        float64 `yaml:"gain"`
	AlertLoad   float64 `yaml:"alert_load"`
}

type EconomicsConfig struct {
	InitialSavings   int64   `yaml:"initial_savings"`
	ConventionalCost int64   `yaml:"conventional_cost"`
	Jitter           float64 `yaml:"jitter"`
}

func DefaultConfig() *Config {
	d := process.Default()
	dosing := control.DefaultDosing()
	return &Config{
		Interval: DefaultInterval,
		DataDir:  DefaultDataDir,
		Listen:   DefaultListen,
		InitState: InitStateConfig{
			PollutantLoad: d.PollutantLoad,
			Dosage:        d.Dosage,
			FlowRate:      d.FlowRate,
			PH:            d.PH,
			AutoDosing:    d.AutoDosing,
		},
		Dosing: DosingConfig{
			LoadDivisor: dosing.LoadDivisor,
			Deadband:    dosing.Deadband,
			Gain:        dosing.Gain,
			AlertLoad:   process.DefaultModel().AlertLoad,
		},
		Economics: EconomicsConfig{
			InitialSavings:   DefaultInitSavings,
			ConventionalCost: DefaultConventional,
			Jitter:           DefaultSavingsJitter,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if err := c.DosingController().Validate(); err != nil {
		return err
	}
	if c.Economics.Jitter < 0 {
		return fmt.Errorf("economics jitter must be non-negative, got %f", c.Economics.Jitter)
	}
	return nil
}

// GetInitState returns the boot state with every input clamped to its
// slider range.
func (c *Config) GetInitState() process.State {
	s := process.Default()
	s.AutoDosing = c.InitState.AutoDosing
	for f, v := range map[process.Field]float64{
		process.FieldPollutantLoad: c.InitState.PollutantLoad,
		process.FieldFlowRate:      c.InitState.FlowRate,
		process.FieldPH:            c.InitState.PH,
	} {
		s, _ = process.ApplyUserEdit(s, f, v)
	}
	// Dosage last: the edit forces manual, restore the configured mode.
	s, _ = process.ApplyUserEdit(s, process.FieldDosage, c.InitState.Dosage)
	s.AutoDosing = c.InitState.AutoDosing
	return s
}

func (c *Config) DosingController() control.Dosing {
	return control.Dosing{
		LoadDivisor: c.Dosing.LoadDivisor,
		Deadband:    c.Dosing.Deadband,
		Gain:        c.Dosing.Gain,
	}
}

// GetModel returns the tick model with the configured controller.
func (c *Config) GetModel() process.Model {
	m := process.DefaultModel()
	m.Dosing = c.DosingController()
	m.AlertLoad = c.Dosing.AlertLoad
	return m
}

func (c *Config) LedgerParams() economics.Params {
	return economics.Params{
		InitialSavings:   decimal.NewFromInt(c.Economics.InitialSavings),
		ConventionalCost: decimal.NewFromInt(c.Economics.ConventionalCost),
		Jitter:           c.Economics.Jitter,
	}
}
