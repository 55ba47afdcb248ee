package grids

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/plasmakit/internal/units"
)

var (
	ErrShapeMismatch   = errors.New("grids: array shape does not match the grid")
	ErrNonUniform      = errors.New("grids: property only valid on uniformly spaced grids")
	ErrNotSupported    = errors.New("grids: interpolation not supported for this grid type")
	ErrUnknownQuantity = errors.New("grids: quantity not defined on the grid")
	ErrInvalidUnits    = errors.New("grids: units are not valid for this grid")
	ErrInvalidSize     = errors.New("grids: every dimension needs at least one point")
)

// UniformTolerance bounds the relative spread of axis steps on a uniform grid.
const UniformTolerance = 1e-6

type Kind int

const (
	Generic Kind = iota
	Cartesian
)

// Quantity is a scalar field sampled at every grid vertex, stored in the
// same flattened order as the mesh.
type Quantity struct {
	Data []float64
	Unit units.Unit
}

// Grid is a structured 3D mesh of vertex positions. Meshes are stored
// flattened with ij indexing: vertex (i, j, k) lives at (i*n1 + j)*n2 + k.
type Grid struct {
	kind       Kind
	shape      [3]int
	uniform    bool
	units      [3]units.Unit
	points     [3][]float64
	axes       [3][]float64
	quantities map[string]*Quantity
}

// Load builds a grid from user supplied meshes of coordinate positions.
func Load(pts0, pts1, pts2 []float64, shape [3]int, us [3]units.Unit) (*Grid, error) {
	size := shape[0] * shape[1] * shape[2]
	if shape[0] < 1 || shape[1] < 1 || shape[2] < 1 {
		return nil, fmt.Errorf("%w: shape %v", ErrInvalidSize, shape)
	}
	if len(pts0) != size || len(pts1) != size || len(pts2) != size {
		return nil, fmt.Errorf("%w: provided arrays of grid points are of unequal shape: "+
			"pts0 = %d, pts1 = %d, pts2 = %d, expected %d",
			ErrShapeMismatch, len(pts0), len(pts1), len(pts2), size)
	}

	g := &Grid{
		kind:       Generic,
		shape:      shape,
		units:      us,
		quantities: make(map[string]*Quantity),
	}
	g.points = [3][]float64{clone(pts0), clone(pts1), clone(pts2)}
	g.uniform = detectUniform(g.points, shape, UniformTolerance)

	if g.uniform {
		for axis := 0; axis < 3; axis++ {
			g.axes[axis] = g.axisValues(axis)
		}
	}
	return g, nil
}

// LoadCartesian is Load restricted to length units on every axis.
func LoadCartesian(pts0, pts1, pts2 []float64, shape [3]int, us [3]units.Unit) (*Grid, error) {
	g, err := Load(pts0, pts1, pts2, shape, us)
	if err != nil {
		return nil, err
	}
	if err := g.makeCartesian(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) makeCartesian() error {
	for _, u := range g.units {
		if u.Dim != units.Length {
			return fmt.Errorf("%w: units of grid are not valid for a Cartesian grid: %v", ErrInvalidUnits, g.units)
		}
	}
	g.kind = Cartesian
	return nil
}

func (g *Grid) Kind() Kind            { return g.kind }
func (g *Grid) Shape() [3]int         { return g.shape }
func (g *Grid) Size() int             { return g.shape[0] * g.shape[1] * g.shape[2] }
func (g *Grid) IsUniform() bool       { return g.uniform }
func (g *Grid) Units() [3]units.Unit  { return g.units }
func (g *Grid) index(i, j, k int) int { return (i*g.shape[1]+j)*g.shape[2] + k }

func (g *Grid) inShape(i, j, k int) bool {
	return i >= 0 && i < g.shape[0] && j >= 0 && j < g.shape[1] && k >= 0 && k < g.shape[2]
}

// Unit returns the unit shared by all three dimensions.
func (g *Grid) Unit() (units.Unit, error) {
	u, err := units.Common(g.units[:]...)
	if err != nil {
		return units.Unit{}, fmt.Errorf("grids: array dimensions do not all have the same units: %w", err)
	}
	return u, nil
}

// Points returns copies of the three flattened coordinate meshes.
func (g *Grid) Points() [3][]float64 {
	return [3][]float64{clone(g.points[0]), clone(g.points[1]), clone(g.points[2])}
}

// Vertex returns the position of vertex (i, j, k) in axis units.
func (g *Grid) Vertex(i, j, k int) [3]float64 {
	n := g.index(i, j, k)
	return [3]float64{g.points[0][n], g.points[1][n], g.points[2][n]}
}

// Axis returns the 1D coordinate values along one dimension.
func (g *Grid) Axis(axis int) ([]float64, error) {
	if !g.uniform {
		return nil, ErrNonUniform
	}
	return clone(g.axes[axis]), nil
}

// Step returns the mean spacing along one dimension.
func (g *Grid) Step(axis int) (float64, error) {
	if !g.uniform {
		return 0, ErrNonUniform
	}
	ax := g.axes[axis]
	if len(ax) < 2 {
		return 0, nil
	}
	return stat.Mean(gradient(ax), nil), nil
}

// AddQuantity attaches a scalar field sampled at every vertex.
func (g *Grid) AddQuantity(key string, data []float64, u units.Unit) error {
	if len(data) != g.Size() {
		return fmt.Errorf("%w: shape of quantity %q (%d) does not match the grid size %d",
			ErrShapeMismatch, key, len(data), g.Size())
	}
	g.quantities[key] = &Quantity{Data: clone(data), Unit: u}
	return nil
}

// AddQuantityFunc samples fn at every vertex (positions in SI).
func (g *Grid) AddQuantityFunc(key string, u units.Unit, fn func(x, y, z float64) float64) error {
	data := make([]float64, g.Size())
	for n := range data {
		x := g.points[0][n] * g.units[0].Scale
		y := g.points[1][n] * g.units[1].Scale
		z := g.points[2][n] * g.units[2].Scale
		data[n] = fn(x, y, z)
	}
	return g.AddQuantity(key, data, u)
}

func (g *Grid) Quantity(key string) (*Quantity, bool) {
	q, ok := g.quantities[key]
	return q, ok
}

func (g *Grid) Keys() []string {
	keys := make([]string, 0, len(g.quantities))
	for k := range g.quantities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *Grid) checkKeys(keys []string) error {
	for _, k := range keys {
		if _, ok := g.quantities[k]; !ok {
			return fmt.Errorf("%w: %q was not found, existing keys are: %v", ErrUnknownQuantity, k, g.Keys())
		}
	}
	return nil
}

func (g *Grid) axisValues(axis int) []float64 {
	n := g.shape[axis]
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var idx [3]int
		idx[axis] = i
		out[i] = g.points[axis][g.index(idx[0], idx[1], idx[2])]
	}
	return out
}

// detectUniform reports whether the mesh is a tensor product of evenly spaced
// axes, judged by the relative standard deviation of the axis gradients.
func detectUniform(points [3][]float64, shape [3]int, tol float64) bool {
	for axis := 0; axis < 3; axis++ {
		pts := points[axis]
		n := shape[axis]
		lines := len(pts) / n

		grads := make([]float64, 0, len(pts))
		line := make([]float64, n)
		for l := 0; l < lines; l++ {
			for i := 0; i < n; i++ {
				line[i] = pts[linearIndex(shape, axis, l, i)]
			}
			if n > 1 {
				grads = append(grads, gradient(line)...)
			}
		}

		if n > 1 {
			mean, std := stat.MeanStdDev(grads, nil)
			if mean == 0 || math.IsNaN(std) || math.Abs(std/mean) > tol {
				return false
			}
		}

		// every line along the other axes must carry the same coordinate
		base := make([]float64, n)
		for i := 0; i < n; i++ {
			base[i] = pts[linearIndex(shape, axis, 0, i)]
		}
		scale := floats.Max(base) - floats.Min(base)
		if scale == 0 {
			scale = 1
		}
		for l := 1; l < lines; l++ {
			for i := 0; i < n; i++ {
				if math.Abs(pts[linearIndex(shape, axis, l, i)]-base[i]) > tol*scale {
					return false
				}
			}
		}
	}
	return true
}

// linearIndex maps the i-th point of line l running along axis to a flat index.
func linearIndex(shape [3]int, axis, l, i int) int {
	var idx [3]int
	switch axis {
	case 0:
		idx = [3]int{i, l / shape[2], l % shape[2]}
	case 1:
		idx = [3]int{l / shape[2], i, l % shape[2]}
	default:
		idx = [3]int{l / shape[1], l % shape[1], i}
	}
	return (idx[0]*shape[1]+idx[1])*shape[2] + idx[2]
}

// gradient mirrors numpy.gradient: central differences inside, one-sided at
// the ends.
func gradient(x []float64) []float64 {
	n := len(x)
	if n < 2 {
		return make([]float64, n)
	}
	g := make([]float64, n)
	g[0] = x[1] - x[0]
	g[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (x[i+1] - x[i-1]) / 2
	}
	return g
}

func clone(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	return c
}
