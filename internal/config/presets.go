package config

// Presets are named operating scenarios applied on top of DefaultConfig.
var Presets = map[string]InitStateConfig{
	"nominal": {PollutantLoad: 50, Dosage: 0.8, FlowRate: 120, PH: 7.2, AutoDosing: true},
	"storm":   {PollutantLoad: 90, Dosage: 0.8, FlowRate: 160, PH: 6.8, AutoDosing: true},
	"flood":   {PollutantLoad: 70, Dosage: 1.4, FlowRate: 200, PH: 7.0, AutoDosing: true},
	"clean":   {PollutantLoad: 0, Dosage: 0.1, FlowRate: 80, PH: 7.4, AutoDosing: true},
	"manual":  {PollutantLoad: 60, Dosage: 0.5, FlowRate: 120, PH: 7.2, AutoDosing: false},
}

// GetPreset returns DefaultConfig with the named scenario applied, or nil.
func GetPreset(name string) *Config {
	init, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.InitState = init
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
