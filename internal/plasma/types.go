package plasma

import "fmt"

// FieldSource supplies the magnetic and electric fields at a point.
type FieldSource interface {
	Fields(x Vec3, t float64) (b, e Vec3)
}

// Pusher advances every particle by one timestep. x and v are updated in
// place; b and e hold the fields sampled at the current positions.
type Pusher interface {
	Name() string
	Push(x, v, b, e []Vec3, q, m, dt float64)
}

type Metric interface {
	Name() string
	Observe(t float64, x, v, b []Vec3)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, t float64, x, v []Vec3)
}

type Config struct {
	Dt            float64 `json:"dt" yaml:"dt"`
	Duration      float64 `json:"duration" yaml:"duration"`
	SnapshotEvery int     `json:"snapshot_every" yaml:"snapshot_every"`
	Workers       int     `json:"workers" yaml:"workers"`
	ValidateState bool    `json:"validate_state" yaml:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-9,
		Duration:      1e-6,
		SnapshotEvery: 1,
		Workers:       4,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf("%w: snapshot_every must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Steps is the number of pushes needed to cover Duration.
func (c Config) Steps() int {
	n := int(c.Duration/c.Dt + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

// Solution keys understood by Vectors and VectorNorm.
const (
	KeyPosition = "x"
	KeyVelocity = "v"
	KeyBField   = "B"
	KeyEField   = "E"
)

// DefaultUnits is the unit attribute stored alongside each solution key.
func DefaultUnits() map[string]string {
	return map[string]string{
		"time":      "s",
		KeyPosition: "m",
		KeyVelocity: "m/s",
		KeyBField:   "T",
		KeyEField:   "V/m",
	}
}

// Solution is the recorded output of a tracker run. Every series is indexed
// [snapshot][particle].
type Solution struct {
	Species Species            `json:"species"`
	Pusher  string             `json:"pusher"`
	Times   []float64          `json:"times"`
	X       [][]Vec3           `json:"x"`
	V       [][]Vec3           `json:"v"`
	B       [][]Vec3           `json:"b"`
	E       [][]Vec3           `json:"e"`
	Metrics map[string]float64 `json:"metrics"`
	Units   map[string]string  `json:"units"`
	Steps   int                `json:"steps"`
}

func NewSolution(species Species, pusher string, capacity int) *Solution {
	return &Solution{
		Species: species,
		Pusher:  pusher,
		Times:   make([]float64, 0, capacity),
		X:       make([][]Vec3, 0, capacity),
		V:       make([][]Vec3, 0, capacity),
		B:       make([][]Vec3, 0, capacity),
		E:       make([][]Vec3, 0, capacity),
		Metrics: make(map[string]float64),
		Units:   DefaultUnits(),
	}
}

// Record appends a snapshot, copying every slice.
func (s *Solution) Record(t float64, x, v, b, e []Vec3) {
	s.Times = append(s.Times, t)
	s.X = append(s.X, CloneVecs(x))
	s.V = append(s.V, CloneVecs(v))
	s.B = append(s.B, CloneVecs(b))
	s.E = append(s.E, CloneVecs(e))
}

func (s *Solution) Len() int { return len(s.Times) }

func (s *Solution) NumParticles() int {
	if len(s.X) == 0 {
		return 0
	}
	return len(s.X[0])
}

func (s *Solution) Vectors(key string) ([][]Vec3, error) {
	switch key {
	case KeyPosition:
		return s.X, nil
	case KeyVelocity:
		return s.V, nil
	case KeyBField:
		return s.B, nil
	case KeyEField:
		return s.E, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQuantity, key)
}

// VectorNorm returns the magnitude of a vector quantity for every snapshot
// and particle.
func (s *Solution) VectorNorm(key string) ([][]float64, error) {
	series, err := s.Vectors(key)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(series))
	for i, row := range series {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v.Norm()
		}
	}
	return out, nil
}

// Component extracts one Cartesian component of a particle's series.
func (s *Solution) Component(key string, particle, axis int) ([]float64, error) {
	series, err := s.Vectors(key)
	if err != nil {
		return nil, err
	}
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("%w: axis %d", ErrDimensionMismatch, axis)
	}
	out := make([]float64, len(series))
	for i, row := range series {
		if particle < 0 || particle >= len(row) {
			return nil, fmt.Errorf("%w: particle %d of %d", ErrDimensionMismatch, particle, len(row))
		}
		out[i] = row[particle][axis]
	}
	return out, nil
}
