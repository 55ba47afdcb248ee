package viz

import (
	"math"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// Camera rotates world points about the origin and projects them with a
// simple perspective onto the canvas.
type Camera struct {
	Distance         float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 5, RotX: -1.1, RotZ: 0.5, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(20, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

// Rotate applies the Z, then X, then Y rotation.
func (c *Camera) Rotate(p plasma.Vec3) plasma.Vec3 {
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	return p
}

// Project maps a point, already normalised to roughly unit size, to dot
// coordinates on a w x h canvas. ok is false behind the camera.
func (c *Camera) Project(p plasma.Vec3, w, h int) (x, y int, ok bool) {
	r := c.Rotate(p).Scale(c.Zoom)
	if r[2] >= c.Distance-0.1 {
		return 0, 0, false
	}
	s := c.Distance / (c.Distance - r[2]) * float64(min(w, h)) / 3
	return int(r[0]*s) + w/2, int(-r[1]*s) + h/2, true
}

// Scene normalises orbits about their common centre so the camera sees
// them at unit scale.
type Scene struct {
	Center plasma.Vec3
	Scale  float64
}

func NewScene(paths ...[]plasma.Vec3) Scene {
	var (
		lo   = plasma.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		hi   = plasma.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		seen bool
	)
	for _, path := range paths {
		for _, p := range path {
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], p[k])
				hi[k] = math.Max(hi[k], p[k])
			}
			seen = true
		}
	}
	if !seen {
		return Scene{Scale: 1}
	}
	span := math.Max(hi[0]-lo[0], math.Max(hi[1]-lo[1], hi[2]-lo[2]))
	if span == 0 {
		span = 1
	}
	return Scene{Center: lo.Add(hi).Scale(0.5), Scale: 2 / span}
}

func (s Scene) normalise(p plasma.Vec3) plasma.Vec3 {
	return p.Sub(s.Center).Scale(s.Scale)
}

// Path3D draws an orbit through the camera.
func (c *Canvas) Path3D(cam *Camera, s Scene, path []plasma.Vec3) {
	w, h := c.Dots()
	var (
		px, py int
		prev   bool
	)
	for _, p := range path {
		x, y, ok := cam.Project(s.normalise(p), w, h)
		if ok && prev {
			c.DrawLine(px, py, x, y)
		} else if ok {
			c.Set(x, y)
		}
		px, py, prev = x, y, ok
	}
}

// Axes3D draws the x, y and z axes of length l (world units) from the
// scene centre.
func (c *Canvas) Axes3D(cam *Camera, s Scene, l float64) {
	for k := 0; k < 3; k++ {
		var end plasma.Vec3
		end[k] = l
		c.Path3D(cam, s, []plasma.Vec3{s.Center, s.Center.Add(end)})
	}
}
