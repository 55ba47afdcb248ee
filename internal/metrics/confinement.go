package metrics

import "github.com/san-kum/plasmakit/internal/plasma"

// Confinement is the fraction of samples in which every particle stays
// within radius of the origin.
type Confinement struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewConfinement(radius float64) *Confinement {
	return &Confinement{
		name:   "confinement",
		radius: radius,
	}
}

func (c *Confinement) Name() string {
	return c.name
}

func (c *Confinement) Observe(_ float64, x, _, _ []plasma.Vec3) {
	c.samples++
	r2 := c.radius * c.radius
	for _, p := range x {
		if p.Norm2() > r2 {
			c.violations++
			break
		}
	}
}

func (c *Confinement) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Confinement) Reset() {
	c.violations = 0
	c.samples = 0
}
