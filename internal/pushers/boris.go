package pushers

import "github.com/san-kum/plasmakit/internal/plasma"

// minChunk is the smallest particle range handed to a worker goroutine.
const minChunk = 64

type Boris struct {
	Workers int
}

func NewBoris() *Boris {
	return &Boris{}
}

func (p *Boris) Name() string { return "boris" }

func (p *Boris) Push(x, v, b, e []plasma.Vec3, q, m, dt float64) {
	hqmdt := 0.5 * dt * q / m

	plasma.ParallelFor(len(x), minChunk, p.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			// first half of the electric impulse
			vminus := v[i].Add(e[i].Scale(hqmdt))

			// rotate about B
			t := b[i].Scale(hqmdt)
			s := t.Scale(2 / (1 + t.Norm2()))
			vprime := vminus.Add(vminus.Cross(t))
			vplus := vminus.Add(vprime.Cross(s))

			// second half of the electric impulse
			v[i] = vplus.Add(e[i].Scale(hqmdt))
			x[i] = x[i].Add(v[i].Scale(dt))
		}
	})
}
