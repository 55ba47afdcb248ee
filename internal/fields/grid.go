package fields

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/plasmakit/internal/grids"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/units"
)

type Interpolation string

const (
	Nearest       Interpolation = "nearest"
	VolumeAverage Interpolation = "volume_averaged"
)

var ErrUnknownInterpolation = errors.New("fields: unknown interpolation method")

// Grid quantity keys read by GridField.
var (
	BKeys = [3]string{"Bx", "By", "Bz"}
	EKeys = [3]string{"Ex", "Ey", "Ez"}
)

// GridField samples B and E components stored on a grid under the keys Bx,
// By, Bz, Ex, Ey and Ez. Missing components read as zero, as does anything
// outside the grid.
type GridField struct {
	grid   *grids.Grid
	method Interpolation
	keys   []string
	// slot[i] is the output position of keys[i] within B (0-2) or E (3-5)
	slot  []int
	scale []float64
}

func NewGridField(g *grids.Grid, method Interpolation) (*GridField, error) {
	switch method {
	case Nearest, VolumeAverage:
	case "":
		method = VolumeAverage
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolation, method)
	}

	if !g.IsUniform() {
		return nil, fmt.Errorf("%w: field grids must be uniform", grids.ErrNotSupported)
	}
	if method == VolumeAverage && g.Kind() != grids.Cartesian {
		return nil, fmt.Errorf("%w: volume averaging needs a Cartesian grid", grids.ErrNotSupported)
	}

	f := &GridField{grid: g, method: method}
	add := func(keys [3]string, offset int, dim units.Dimension) error {
		for i, k := range keys {
			q, ok := g.Quantity(k)
			if !ok {
				continue
			}
			if q.Unit.Dim != dim {
				return fmt.Errorf("%w: %s has unit %s, want %s", grids.ErrInvalidUnits, k, q.Unit, dim)
			}
			f.keys = append(f.keys, k)
			f.slot = append(f.slot, offset+i)
			f.scale = append(f.scale, q.Unit.Scale)
		}
		return nil
	}
	if err := add(BKeys, 0, units.MagneticField); err != nil {
		return nil, err
	}
	if err := add(EKeys, 3, units.ElectricField); err != nil {
		return nil, err
	}
	if len(f.keys) == 0 {
		return nil, fmt.Errorf("%w: grid carries none of %v %v", grids.ErrUnknownQuantity, BKeys, EKeys)
	}
	return f, nil
}

func (f *GridField) Fields(x plasma.Vec3, _ float64) (b, e plasma.Vec3) {
	pos := [][3]float64{x}

	var (
		vals [][]float64
		err  error
	)
	if f.method == Nearest {
		vals, err = f.grid.NearestNeighbor(pos, f.keys...)
	} else {
		vals, err = f.grid.VolumeAveraged(pos, f.keys...)
	}
	if err != nil {
		return b, e
	}

	for i, v := range vals {
		val := v[0]
		if math.IsNaN(val) {
			continue
		}
		val *= f.scale[i]
		if s := f.slot[i]; s < 3 {
			b[s] = val
		} else {
			e[s-3] = val
		}
	}
	return b, e
}
