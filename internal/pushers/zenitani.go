package pushers

import (
	"math"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// DefaultBThreshold keeps the field direction finite when |B| vanishes.
const DefaultBThreshold = 1e-20

// Zenitani is the Zenitani-Umeda relativistic pusher. Velocities are converted
// to u = gamma v for the push and back afterwards.
type Zenitani struct {
	Workers    int
	BThreshold float64
}

func NewZenitani() *Zenitani {
	return &Zenitani{BThreshold: DefaultBThreshold}
}

func (p *Zenitani) Name() string { return "zenitani" }

func (p *Zenitani) Push(x, v, b, e []plasma.Vec3, q, m, dt float64) {
	c := q / m * dt
	threshold := p.BThreshold
	if threshold <= 0 {
		threshold = DefaultBThreshold
	}

	plasma.ParallelFor(len(x), minChunk, p.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			epsilon := e[i].Scale(0.5 * c)
			uminus := v[i].Scale(LorentzFactor(v[i])).Add(epsilon)

			bmag := math.Max(b[i].Norm(), threshold)
			theta := c * bmag / gammaFromU(uminus)
			bhat := b[i].Scale(1 / bmag)

			upar := bhat.Scale(uminus.Dot(bhat))
			sin, cos := math.Sincos(theta)
			uplus := upar.
				Add(uminus.Sub(upar).Scale(cos)).
				Add(uminus.Cross(bhat).Scale(sin))

			uhalf := uplus.Add(epsilon)
			v[i] = uhalf.Scale(1 / gammaFromU(uhalf))
			x[i] = x[i].Add(v[i].Scale(dt))
		}
	})
}

// LorentzFactor returns 1/sqrt(1 - v^2/c^2); NaN at or above light speed.
func LorentzFactor(v plasma.Vec3) float64 {
	beta2 := v.Norm2() / (plasma.SpeedOfLight * plasma.SpeedOfLight)
	if beta2 >= 1 {
		return math.NaN()
	}
	return 1 / math.Sqrt(1-beta2)
}

func gammaFromU(u plasma.Vec3) float64 {
	return math.Sqrt(1 + u.Norm2()/(plasma.SpeedOfLight*plasma.SpeedOfLight))
}
