package pushers

import "github.com/san-kum/plasmakit/internal/plasma"

// ImplicitBoris solves v' = v + (q dt/m) (E + (v + v')/2 x B) exactly. With
// t = (q dt / 2m) B and r = v + (q dt/m) E + v x t the solution is
//
//	v' = (r + r x t + (r.t) t) / (1 + |t|^2)
type ImplicitBoris struct {
	Workers int
}

func NewImplicitBoris() *ImplicitBoris {
	return &ImplicitBoris{}
}

func (p *ImplicitBoris) Name() string { return "implicit_boris" }

func (p *ImplicitBoris) Push(x, v, b, e []plasma.Vec3, q, m, dt float64) {
	c := q / m * dt

	plasma.ParallelFor(len(x), minChunk, p.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			r := v[i].Add(e[i].Scale(c))
			v[i] = cayley(r, v[i], b[i].Scale(0.5*c))
			x[i] = x[i].Add(v[i].Scale(dt))
		}
	})
}

// ImplicitMagnetic is the implicit rotation without the electric impulse.
// Electric fields passed to Push are ignored.
type ImplicitMagnetic struct {
	Workers int
}

func NewImplicitMagnetic() *ImplicitMagnetic {
	return &ImplicitMagnetic{}
}

func (p *ImplicitMagnetic) Name() string { return "implicit_boris_magnetic" }

func (p *ImplicitMagnetic) Push(x, v, b, _ []plasma.Vec3, q, m, dt float64) {
	c := q / m * dt

	plasma.ParallelFor(len(x), minChunk, p.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			v[i] = cayley(v[i], v[i], b[i].Scale(0.5*c))
			x[i] = x[i].Add(v[i].Scale(dt))
		}
	})
}

// cayley solves w - w x t = base + v x t for w.
func cayley(base, v, t plasma.Vec3) plasma.Vec3 {
	r := base.Add(v.Cross(t))
	w := r.Add(r.Cross(t)).Add(t.Scale(r.Dot(t)))
	return w.Scale(1 / (1 + t.Norm2()))
}
