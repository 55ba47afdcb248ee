package metrics

import (
	"math"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// perpendicular splits v into the speed across b and the Lorentz factor.
func perpendicular(v, b plasma.Vec3) (vperp, gamma float64, ok bool) {
	bmag := b.Norm()
	if bmag == 0 {
		return 0, 0, false
	}
	vpar := v.Dot(b) / bmag
	vperp = math.Sqrt(math.Max(0, v.Norm2()-vpar*vpar))
	gamma = 1 / math.Sqrt(1-v.Norm2()/(plasma.SpeedOfLight*plasma.SpeedOfLight))
	return vperp, gamma, !math.IsNaN(gamma)
}

// MagneticMoment is the first adiabatic invariant p_perp^2 / (2 m |B|).
func MagneticMoment(sp plasma.Species, v, b plasma.Vec3) float64 {
	vperp, gamma, ok := perpendicular(v, b)
	if !ok {
		return math.NaN()
	}
	return gamma * gamma * sp.Mass * vperp * vperp / (2 * b.Norm())
}

// LarmorRadius is gamma m v_perp / (|q| |B|).
func LarmorRadius(sp plasma.Species, v, b plasma.Vec3) float64 {
	vperp, gamma, ok := perpendicular(v, b)
	if !ok || sp.Charge == 0 {
		return math.Inf(1)
	}
	return gamma * sp.Mass * vperp / (math.Abs(sp.Charge) * b.Norm())
}

// MagneticMomentDrift is the largest relative change of any particle's
// magnetic moment from its first value. Particles in zero field are skipped.
type MagneticMomentDrift struct {
	species  plasma.Species
	initial  []float64
	maxDrift float64
}

func NewMagneticMomentDrift(sp plasma.Species) *MagneticMomentDrift {
	return &MagneticMomentDrift{species: sp}
}

func (m *MagneticMomentDrift) Name() string { return "mu_drift" }

func (m *MagneticMomentDrift) Observe(_ float64, _, v, b []plasma.Vec3) {
	if m.initial == nil {
		m.initial = make([]float64, len(v))
		for i := range v {
			m.initial[i] = MagneticMoment(m.species, v[i], b[i])
		}
	}
	for i := range v {
		if i >= len(m.initial) || !(m.initial[i] > 0) {
			continue
		}
		mu := MagneticMoment(m.species, v[i], b[i])
		if math.IsNaN(mu) {
			continue
		}
		m.maxDrift = math.Max(m.maxDrift, math.Abs(mu-m.initial[i])/m.initial[i])
	}
}

func (m *MagneticMomentDrift) Value() float64 { return m.maxDrift }

func (m *MagneticMomentDrift) Reset() {
	m.initial = nil
	m.maxDrift = 0
}

// GyroRadius averages the Larmor radius over particles and samples.
type GyroRadius struct {
	species plasma.Species
	sum     float64
	samples int
}

func NewGyroRadius(sp plasma.Species) *GyroRadius {
	return &GyroRadius{species: sp}
}

func (g *GyroRadius) Name() string { return "gyroradius" }

func (g *GyroRadius) Observe(_ float64, _, v, b []plasma.Vec3) {
	for i := range v {
		r := LarmorRadius(g.species, v[i], b[i])
		if math.IsInf(r, 0) || math.IsNaN(r) {
			continue
		}
		g.sum += r
		g.samples++
	}
}

func (g *GyroRadius) Value() float64 {
	if g.samples == 0 {
		return 0
	}
	return g.sum / float64(g.samples)
}

func (g *GyroRadius) Reset() {
	g.sum = 0
	g.samples = 0
}
