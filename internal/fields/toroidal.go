package fields

import (
	"math"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// Toroidal is the field of an infinite straight current along z:
// B = mu0 I / (2 pi R) in the azimuthal direction. Vertical adds a uniform
// Bz, which turns it into the toy tokamak used for drift tests.
type Toroidal struct {
	Current  float64
	Vertical float64
}

func (f *Toroidal) Fields(x plasma.Vec3, _ float64) (b, e plasma.Vec3) {
	r2 := x[0]*x[0] + x[1]*x[1]
	b[2] = f.Vertical
	if r2 == 0 {
		return b, e
	}
	r := math.Sqrt(r2)
	mag := plasma.Mu0 * f.Current / (2 * math.Pi * r)
	b[0] = -mag * x[1] / r
	b[1] = mag * x[0] / r
	return b, e
}

// Mirror is the paraxial magnetic bottle Bz = B0 (1 + z^2/L^2), with the
// radial component fixed by div B = 0.
type Mirror struct {
	B0 float64
	L  float64
}

func (f *Mirror) Fields(x plasma.Vec3, _ float64) (b, e plasma.Vec3) {
	l2 := f.L * f.L
	b[0] = -f.B0 * x[0] * x[2] / l2
	b[1] = -f.B0 * x[1] * x[2] / l2
	b[2] = f.B0 * (1 + x[2]*x[2]/l2)
	return b, e
}

// MirrorRatio is Bmax/Bmin between the midplane and z = ±zmax.
func (f *Mirror) MirrorRatio(zmax float64) float64 {
	return 1 + zmax*zmax/(f.L*f.L)
}
