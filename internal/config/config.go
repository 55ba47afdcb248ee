package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/units"
)

const (
	DefaultDt            = 1e-10
	DefaultDuration      = 1e-7
	DefaultSnapshotEvery = 10
	DefaultWorkers       = 4
	DefaultSpecies       = "p"
	DefaultPusher        = "boris"
	DefaultRadius        = 1.0
)

// Field types understood by FieldConfig.Type.
const (
	FieldUniform  = "uniform"
	FieldToroidal = "toroidal"
	FieldMirror   = "mirror"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Name          string           `yaml:"name"`
	Species       string           `yaml:"species"`
	Pusher        string           `yaml:"pusher"`
	Dt            float64          `yaml:"dt"`
	Duration      float64          `yaml:"duration"`
	SnapshotEvery int              `yaml:"snapshot_every"`
	Workers       int              `yaml:"workers"`
	Units         UnitsConfig      `yaml:"units"`
	Field         FieldConfig      `yaml:"field"`
	Particles     []ParticleConfig `yaml:"particles"`
	Metrics       []string         `yaml:"metrics,omitempty"`
	// Radius bounds the confinement metric, in length units.
	Radius float64 `yaml:"radius,omitempty"`
}

// UnitsConfig names the units the rest of the file is written in. Empty
// entries mean SI.
type UnitsConfig struct {
	Length   string `yaml:"length,omitempty"`
	Velocity string `yaml:"velocity,omitempty"`
	Time     string `yaml:"time,omitempty"`
	BField   string `yaml:"b,omitempty"`
	EField   string `yaml:"e,omitempty"`
}

type FieldConfig struct {
	Type     string      `yaml:"type"`
	B        [3]float64  `yaml:"b,flow"`
	E        [3]float64  `yaml:"e,flow"`
	Current  float64     `yaml:"current,omitempty"`
	Vertical float64     `yaml:"vertical,omitempty"`
	B0       float64     `yaml:"b0,omitempty"`
	Length   float64     `yaml:"length,omitempty"`
	Grid     *GridConfig `yaml:"grid,omitempty"`
}

// GridConfig samples the analytic field onto a Cartesian grid, which the
// tracker then interpolates instead of evaluating the field directly.
type GridConfig struct {
	Min           [3]float64 `yaml:"min,flow"`
	Max           [3]float64 `yaml:"max,flow"`
	Points        [3]int     `yaml:"points,flow"`
	Interpolation string     `yaml:"interpolation,omitempty"`
}

type ParticleConfig struct {
	X [3]float64 `yaml:"x,flow"`
	V [3]float64 `yaml:"v,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:          "run",
		Species:       DefaultSpecies,
		Pusher:        DefaultPusher,
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		SnapshotEvery: DefaultSnapshotEvery,
		Workers:       DefaultWorkers,
		Field: FieldConfig{
			Type: FieldUniform,
			B:    [3]float64{0, 0, 1},
		},
		Particles: []ParticleConfig{
			{V: [3]float64{1e5, 0, 0}},
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := plasma.LookupSpecies(c.Species); err != nil {
		return err
	}
	if c.Pusher == "" {
		return fmt.Errorf("%w: pusher is required", ErrInvalid)
	}
	if c.Dt <= 0 || c.Duration <= 0 {
		return fmt.Errorf("%w: dt and duration must be positive, got %g and %g", ErrInvalid, c.Dt, c.Duration)
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf("%w: snapshot_every must not be negative", ErrInvalid)
	}
	if len(c.Particles) == 0 {
		return fmt.Errorf("%w: at least one particle is required", ErrInvalid)
	}
	if _, err := c.scales(); err != nil {
		return err
	}

	switch c.Field.Type {
	case FieldUniform, FieldToroidal:
	case FieldMirror:
		if c.Field.Length <= 0 {
			return fmt.Errorf("%w: mirror field needs a positive length", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown field type %q", ErrInvalid, c.Field.Type)
	}

	if g := c.Field.Grid; g != nil {
		for i := 0; i < 3; i++ {
			if g.Points[i] < 1 {
				return fmt.Errorf("%w: grid needs at least one point per axis, got %v", ErrInvalid, g.Points)
			}
			if g.Points[i] > 1 && g.Max[i] <= g.Min[i] {
				return fmt.Errorf("%w: grid axis %d has max %g <= min %g", ErrInvalid, i, g.Max[i], g.Min[i])
			}
		}
	}
	return nil
}

type scales struct {
	length, velocity, time, b, e float64
}

func (c *Config) scales() (scales, error) {
	var s scales
	for _, item := range []struct {
		symbol string
		dim    units.Dimension
		out    *float64
	}{
		{c.Units.Length, units.Length, &s.length},
		{c.Units.Velocity, units.Velocity, &s.velocity},
		{c.Units.Time, units.Time, &s.time},
		{c.Units.BField, units.MagneticField, &s.b},
		{c.Units.EField, units.ElectricField, &s.e},
	} {
		*item.out = 1
		if item.symbol == "" {
			continue
		}
		u, err := units.Parse(item.symbol)
		if err != nil {
			return scales{}, fmt.Errorf("config: %w", err)
		}
		if u.Dim != item.dim {
			return scales{}, fmt.Errorf("%w: unit %s is a %s, want %s", ErrInvalid, u, u.Dim, item.dim)
		}
		*item.out = u.Scale
	}
	return s, nil
}

// RunConfig converts the timing options into SI for the tracker.
func (c *Config) RunConfig() (plasma.Config, error) {
	s, err := c.scales()
	if err != nil {
		return plasma.Config{}, err
	}
	rc := plasma.Config{
		Dt:            c.Dt * s.time,
		Duration:      c.Duration * s.time,
		SnapshotEvery: c.SnapshotEvery,
		Workers:       c.Workers,
		ValidateState: true,
	}
	return rc, rc.Validate()
}

// InitialState returns particle positions and velocities in SI.
func (c *Config) InitialState() (x, v []plasma.Vec3, err error) {
	s, err := c.scales()
	if err != nil {
		return nil, nil, err
	}
	x = make([]plasma.Vec3, len(c.Particles))
	v = make([]plasma.Vec3, len(c.Particles))
	for i, p := range c.Particles {
		x[i] = plasma.Vec3(p.X).Scale(s.length)
		v[i] = plasma.Vec3(p.V).Scale(s.velocity)
	}
	return x, v, nil
}

// FieldSI returns the field section with every value in SI.
func (c *Config) FieldSI() (FieldConfig, error) {
	s, err := c.scales()
	if err != nil {
		return FieldConfig{}, err
	}
	f := c.Field
	f.B = plasma.Vec3(f.B).Scale(s.b)
	f.E = plasma.Vec3(f.E).Scale(s.e)
	f.Vertical *= s.b
	f.B0 *= s.b
	f.Length *= s.length
	if f.Grid != nil {
		g := *f.Grid
		g.Min = plasma.Vec3(g.Min).Scale(s.length)
		g.Max = plasma.Vec3(g.Max).Scale(s.length)
		f.Grid = &g
	}
	return f, nil
}

// RadiusSI is the confinement radius in metres.
func (c *Config) RadiusSI() float64 {
	r := c.Radius
	if r <= 0 {
		return DefaultRadius
	}
	s, err := c.scales()
	if err != nil {
		return r
	}
	return r * s.length
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles = append([]ParticleConfig(nil), c.Particles...)
	out.Metrics = append([]string(nil), c.Metrics...)
	if c.Field.Grid != nil {
		g := *c.Field.Grid
		out.Field.Grid = &g
	}
	return &out
}
