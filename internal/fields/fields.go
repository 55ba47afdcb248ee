// Package fields provides electromagnetic field sources for the tracker.
package fields

import "github.com/san-kum/plasmakit/internal/plasma"

// Uniform is a constant field everywhere in space.
type Uniform struct {
	B plasma.Vec3
	E plasma.Vec3
}

func NewUniform(b, e plasma.Vec3) *Uniform {
	return &Uniform{B: b, E: e}
}

func (u *Uniform) Fields(plasma.Vec3, float64) (b, e plasma.Vec3) {
	return u.B, u.E
}

// Sum superposes field sources.
type Sum []plasma.FieldSource

func (s Sum) Fields(x plasma.Vec3, t float64) (b, e plasma.Vec3) {
	for _, src := range s {
		bi, ei := src.Fields(x, t)
		b = b.Add(bi)
		e = e.Add(ei)
	}
	return b, e
}
