// Package units converts between the handful of physical units used by
// grids and run configuration. Values are stored in SI internally.
package units

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownUnit     = errors.New("units: unknown unit")
	ErrIncompatible    = errors.New("units: incompatible dimensions")
	ErrMixedDimensions = errors.New("units: quantities do not share a unit")
)

type Dimension int

const (
	Dimensionless Dimension = iota
	Length
	Time
	Velocity
	MagneticField
	ElectricField
	Angle
)

func (d Dimension) String() string {
	switch d {
	case Length:
		return "length"
	case Time:
		return "time"
	case Velocity:
		return "velocity"
	case MagneticField:
		return "magnetic field"
	case ElectricField:
		return "electric field"
	case Angle:
		return "angle"
	}
	return "dimensionless"
}

// Unit is a named scale factor to the SI unit of its dimension.
type Unit struct {
	Symbol string
	Scale  float64
	Dim    Dimension
}

var (
	One        = Unit{"", 1, Dimensionless}
	Meter      = Unit{"m", 1, Length}
	Centimeter = Unit{"cm", 1e-2, Length}
	Millimeter = Unit{"mm", 1e-3, Length}
	Micrometer = Unit{"um", 1e-6, Length}
	Kilometer  = Unit{"km", 1e3, Length}
	Second     = Unit{"s", 1, Time}
	Millisec   = Unit{"ms", 1e-3, Time}
	Microsec   = Unit{"us", 1e-6, Time}
	Nanosec    = Unit{"ns", 1e-9, Time}
	MeterPerS  = Unit{"m/s", 1, Velocity}
	KmPerS     = Unit{"km/s", 1e3, Velocity}
	Tesla      = Unit{"T", 1, MagneticField}
	Millitesla = Unit{"mT", 1e-3, MagneticField}
	Gauss      = Unit{"G", 1e-4, MagneticField}
	VoltPerM   = Unit{"V/m", 1, ElectricField}
	KVoltPerM  = Unit{"kV/m", 1e3, ElectricField}
	Radian     = Unit{"rad", 1, Angle}
	Degree     = Unit{"deg", 0.017453292519943295, Angle}
)

var table = map[string]Unit{}

func init() {
	for _, u := range []Unit{
		One, Meter, Centimeter, Millimeter, Micrometer, Kilometer,
		Second, Millisec, Microsec, Nanosec, MeterPerS, KmPerS,
		Tesla, Millitesla, Gauss, VoltPerM, KVoltPerM, Radian, Degree,
	} {
		table[u.Symbol] = u
	}
	table["µm"] = Micrometer
	table["µs"] = Microsec
	table["dimensionless"] = One
}

// Parse resolves a unit symbol such as "cm" or "kV/m".
func Parse(symbol string) (Unit, error) {
	u, ok := table[strings.TrimSpace(symbol)]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, symbol)
	}
	return u, nil
}

// MustParse is Parse for package-level tables; it panics on unknown symbols.
func MustParse(symbol string) Unit {
	u, err := Parse(symbol)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Unit) String() string {
	if u.Symbol == "" {
		return "dimensionless"
	}
	return u.Symbol
}

// Compatible reports whether u and other share a dimension.
func (u Unit) Compatible(other Unit) bool {
	return u.Dim == other.Dim
}

// Convert expresses value (in u) in other.
func (u Unit) Convert(value float64, other Unit) (float64, error) {
	if !u.Compatible(other) {
		return 0, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrIncompatible, u, u.Dim, other, other.Dim)
	}
	return value * u.Scale / other.Scale, nil
}

// Quantity is a value tagged with a unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

func Q(value float64, u Unit) Quantity {
	return Quantity{Value: value, Unit: u}
}

func (q Quantity) SI() float64 {
	return q.Value * q.Unit.Scale
}

func (q Quantity) To(u Unit) (Quantity, error) {
	v, err := q.Unit.Convert(q.Value, u)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: v, Unit: u}, nil
}

func (q Quantity) String() string {
	if q.Unit.Symbol == "" {
		return fmt.Sprintf("%g", q.Value)
	}
	return fmt.Sprintf("%g %s", q.Value, q.Unit.Symbol)
}

// Common returns the unit shared by every element of us, or ErrMixedDimensions.
func Common(us ...Unit) (Unit, error) {
	if len(us) == 0 {
		return One, nil
	}
	for _, u := range us[1:] {
		if u != us[0] {
			return Unit{}, fmt.Errorf("%w: %v", ErrMixedDimensions, us)
		}
	}
	return us[0], nil
}
