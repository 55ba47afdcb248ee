package config

import (
	"sort"

	"github.com/san-kum/plasmakit/internal/plasma"
)

var Presets = map[string]*Config{
	// 1 T proton, ten gyroperiods
	"gyration": {
		Name: "gyration", Species: "p", Pusher: "boris",
		Dt: 1e-10, Duration: 6.56e-7, SnapshotEvery: 10, Workers: 1,
		Field:     FieldConfig{Type: FieldUniform, B: [3]float64{0, 0, 1}},
		Particles: []ParticleConfig{{V: [3]float64{1e5, 0, 0}}},
		Metrics:   []string{"energy_drift", "gyroradius"},
	},
	"exb_drift": {
		Name: "exb_drift", Species: "p", Pusher: "boris",
		Dt: 1e-10, Duration: 1e-6, SnapshotEvery: 10, Workers: 1,
		Field: FieldConfig{Type: FieldUniform, B: [3]float64{0, 0, 1}, E: [3]float64{0, 1e3, 0}},
		Particles: []ParticleConfig{
			{V: [3]float64{0, 0, 0}},
			{V: [3]float64{1e4, 0, 0}},
		},
		Metrics: []string{"gyroradius"},
	},
	"tokamak": {
		Name: "tokamak", Species: "p", Pusher: "boris",
		Dt: 1e-10, Duration: 2e-6, SnapshotEvery: 20, Workers: 1,
		Field: FieldConfig{Type: FieldToroidal, Current: 1e6, Vertical: 0.01},
		Particles: []ParticleConfig{
			{X: [3]float64{1, 0, 0}, V: [3]float64{0, 1e5, 1e4}},
		},
		Metrics: []string{"energy_drift", "confinement"},
		Radius:  2,
	},
	"mirror": {
		Name: "mirror", Species: "p", Pusher: "implicit_boris",
		Dt: 1e-9, Duration: 5e-5, SnapshotEvery: 50, Workers: 1,
		Units:     UnitsConfig{Length: "cm"},
		Field:     FieldConfig{Type: FieldMirror, B0: 0.1, Length: 50},
		Particles: []ParticleConfig{{X: [3]float64{1, 0, 0}, V: [3]float64{1e5, 0, 5e4}}},
		Metrics:   []string{"energy_drift", "mu_drift", "confinement"},
		Radius:    100,
	},
	"relativistic_electron": {
		Name: "relativistic_electron", Species: "e-", Pusher: "zenitani",
		Dt: 1e-12, Duration: 1e-8, SnapshotEvery: 10, Workers: 1,
		Field:     FieldConfig{Type: FieldUniform, B: [3]float64{0, 0, 0.01}},
		Particles: []ParticleConfig{{V: [3]float64{0.9 * plasma.SpeedOfLight, 0, 0}}},
		Metrics:   []string{"energy_drift", "gyroradius"},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
