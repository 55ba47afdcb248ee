package grids

import (
	"fmt"
	"math"
)

// Index locates a position on the grid. OK is false when the position lies
// outside the grid bounds.
type Index struct {
	I  [3]int
	OK bool
}

// edge slack, in units of one grid step
const edgeSlack = 1e-9

// fractional maps a position in SI onto continuous index space along each
// axis. Single point axes act as infinite slabs and always map to 0.
func (g *Grid) fractional(pos [3]float64) (f [3]float64, ok bool) {
	ok = true
	for axis := 0; axis < 3; axis++ {
		ax := g.axes[axis]
		n := len(ax)
		if n == 1 {
			continue
		}
		step := (ax[n-1] - ax[0]) / float64(n-1)
		p := pos[axis] / g.units[axis].Scale
		f[axis] = (p - ax[0]) / step
		if math.IsNaN(f[axis]) || f[axis] < -edgeSlack || f[axis] > float64(n-1)+edgeSlack {
			ok = false
		}
	}
	return f, ok
}

// InterpolateIndices finds the nearest vertex for each position (in SI).
func (g *Grid) InterpolateIndices(pos [][3]float64) ([]Index, error) {
	if !g.uniform {
		return nil, fmt.Errorf("%w: nearest neighbor lookup needs a uniform grid", ErrNotSupported)
	}
	out := make([]Index, len(pos))
	for p, x := range pos {
		f, ok := g.fractional(x)
		if !ok {
			continue
		}
		var idx [3]int
		for axis := 0; axis < 3; axis++ {
			i := int(math.Round(f[axis]))
			idx[axis] = max(0, min(i, g.shape[axis]-1))
		}
		out[p] = Index{I: idx, OK: true}
	}
	return out, nil
}

// NearestNeighbor returns, for each key, the quantity value at the vertex
// closest to each position. Positions outside the grid yield NaN.
func (g *Grid) NearestNeighbor(pos [][3]float64, keys ...string) ([][]float64, error) {
	if err := g.checkKeys(keys); err != nil {
		return nil, err
	}
	indices, err := g.InterpolateIndices(pos)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(keys))
	for k, key := range keys {
		data := g.quantities[key].Data
		vals := make([]float64, len(pos))
		for p, idx := range indices {
			if !idx.OK {
				vals[p] = math.NaN()
				continue
			}
			vals[p] = data[g.index(idx.I[0], idx.I[1], idx.I[2])]
		}
		out[k] = vals
	}
	return out, nil
}

// VolumeAveraged interpolates each quantity trilinearly from the eight
// vertices of the cell enclosing each position. Each vertex is weighted by
// the volume of the sub-cell opposite it. Positions outside the grid yield NaN.
func (g *Grid) VolumeAveraged(pos [][3]float64, keys ...string) ([][]float64, error) {
	if g.kind != Cartesian {
		return nil, fmt.Errorf("%w: volume averaged interpolation is only supported on Cartesian grids", ErrNotSupported)
	}
	if !g.uniform {
		return nil, fmt.Errorf("%w: volume averaged interpolation needs a uniform grid", ErrNotSupported)
	}
	if err := g.checkKeys(keys); err != nil {
		return nil, err
	}

	out := make([][]float64, len(keys))
	for k := range out {
		out[k] = make([]float64, len(pos))
	}

	for p, x := range pos {
		f, ok := g.fractional(x)
		if !ok {
			for k := range out {
				out[k][p] = math.NaN()
			}
			continue
		}

		var (
			lo [3]int
			w  [3]float64
		)
		for axis := 0; axis < 3; axis++ {
			n := g.shape[axis]
			if n == 1 {
				continue
			}
			i := int(math.Floor(f[axis]))
			i = max(0, min(i, n-2))
			lo[axis] = i
			w[axis] = math.Max(0, math.Min(1, f[axis]-float64(i)))
		}

		for k, key := range keys {
			data := g.quantities[key].Data
			var sum float64
			for c := 0; c < 8; c++ {
				i, j, l := lo[0]+(c&1), lo[1]+((c>>1)&1), lo[2]+((c>>2)&1)
				weight := cornerWeight(w[0], c&1) * cornerWeight(w[1], (c>>1)&1) * cornerWeight(w[2], (c>>2)&1)
				if weight == 0 || !g.inShape(i, j, l) {
					continue
				}
				sum += weight * data[g.index(i, j, l)]
			}
			out[k][p] = sum
		}
	}
	return out, nil
}

func cornerWeight(w float64, upper int) float64 {
	if upper == 1 {
		return w
	}
	return 1 - w
}
