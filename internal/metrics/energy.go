package metrics

import (
	"math"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// KineticEnergy is the relativistic (gamma - 1) m c^2, written as
// m gamma^2 v^2 / (gamma + 1) so it stays accurate for slow particles.
func KineticEnergy(mass float64, v plasma.Vec3) float64 {
	beta2 := v.Norm2() / (plasma.SpeedOfLight * plasma.SpeedOfLight)
	if beta2 >= 1 {
		return math.Inf(1)
	}
	gamma := 1 / math.Sqrt(1-beta2)
	return mass * gamma * gamma * v.Norm2() / (gamma + 1)
}

// EnergyDrift tracks the largest relative change of any particle's kinetic
// energy from its first observed value.
type EnergyDrift struct {
	name     string
	mass     float64
	initial  []float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(sp plasma.Species) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		mass: sp.Mass,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ float64, _, v, _ []plasma.Vec3) {
	if e.samples == 0 {
		e.initial = make([]float64, len(v))
		for i := range v {
			e.initial[i] = KineticEnergy(e.mass, v[i])
		}
	}
	e.samples++

	for i := range v {
		if i >= len(e.initial) || e.initial[i] == 0 {
			continue
		}
		energy := KineticEnergy(e.mass, v[i])
		drift := math.Abs(energy-e.initial[i]) / e.initial[i]
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = nil
	e.maxDrift = 0
	e.samples = 0
}
