package grids

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/plasmakit/internal/units"
)

// Same expands a single value to all three dimensions.
func Same(q units.Quantity) [3]units.Quantity {
	return [3]units.Quantity{q, q, q}
}

// SameN expands a single point count to all three dimensions.
func SameN(n int) [3]int {
	return [3]int{n, n, n}
}

// NewCartesian creates a uniformly spaced Cartesian grid mirroring linspace:
// num points from start to stop inclusive along each dimension. Each
// dimension takes the unit of its start value.
func NewCartesian(start, stop [3]units.Quantity, num [3]int) (*Grid, error) {
	return makeGrid(start, stop, num, func(lo, hi float64, n int) []float64 {
		ax := make([]float64, n)
		if n == 1 {
			ax[0] = lo
			return ax
		}
		return floats.Span(ax, lo, hi)
	})
}

// NewNonUniformCartesian creates a Cartesian grid whose axes are sorted
// uniform random samples in [start, stop).
func NewNonUniformCartesian(start, stop [3]units.Quantity, num [3]int, rng *rand.Rand) (*Grid, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return makeGrid(start, stop, num, func(lo, hi float64, n int) []float64 {
		ax := make([]float64, n)
		for i := range ax {
			ax[i] = lo + rng.Float64()*(hi-lo)
		}
		sort.Float64s(ax)
		return ax
	})
}

func makeGrid(start, stop [3]units.Quantity, num [3]int, axis func(lo, hi float64, n int) []float64) (*Grid, error) {
	var (
		axes [3][]float64
		us   [3]units.Unit
	)
	for i := 0; i < 3; i++ {
		if num[i] < 1 {
			return nil, fmt.Errorf("%w: num[%d] = %d", ErrInvalidSize, i, num[i])
		}
		us[i] = start[i].Unit
		hi, err := stop[i].To(us[i])
		if err != nil {
			return nil, fmt.Errorf("grids: units of %v and %v are not compatible: %w", stop[i], us[i], err)
		}
		axes[i] = axis(start[i].Value, hi.Value, num[i])
	}

	pts0, pts1, pts2 := Meshgrid(axes[0], axes[1], axes[2])
	return LoadCartesian(pts0, pts1, pts2, num, us)
}

// Meshgrid builds flattened ij-indexed coordinate meshes from three axes.
func Meshgrid(ax0, ax1, ax2 []float64) (pts0, pts1, pts2 []float64) {
	n0, n1, n2 := len(ax0), len(ax1), len(ax2)
	size := n0 * n1 * n2
	pts0 = make([]float64, size)
	pts1 = make([]float64, size)
	pts2 = make([]float64, size)

	n := 0
	for i := 0; i < n0; i++ {
		for j := 0; j < n1; j++ {
			for k := 0; k < n2; k++ {
				pts0[n] = ax0[i]
				pts1[n] = ax1[j]
				pts2[n] = ax2[k]
				n++
			}
		}
	}
	return pts0, pts1, pts2
}
