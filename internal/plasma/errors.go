package plasma

import (
	"errors"
	"fmt"
)

// Domain errors for particle tracking.
var (
	// ErrInvalidState indicates a position or velocity holding NaN or Inf.
	ErrInvalidState = errors.New("plasma: invalid particle state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates position, velocity or field slices of unequal length.
	ErrDimensionMismatch = errors.New("plasma: dimension mismatch between particle arrays")

	// ErrUnknownPusher indicates a pusher name not present in the registry.
	ErrUnknownPusher = errors.New("plasma: unknown pusher")

	// ErrUnknownSpecies indicates an unrecognised particle symbol.
	ErrUnknownSpecies = errors.New("plasma: unknown particle species")

	// ErrUnknownQuantity indicates a solution key other than x, v, B or E.
	ErrUnknownQuantity = errors.New("plasma: unknown solution quantity")

	// ErrInvalidConfig indicates a non-positive timestep or duration.
	ErrInvalidConfig = errors.New("plasma: invalid run configuration")

	// ErrSuperluminal indicates a particle reaching or exceeding the speed of light.
	ErrSuperluminal = errors.New("plasma: particle speed reached the speed of light")
)

// TrackError wraps an error with the step, time and particle where it occurred.
type TrackError struct {
	Step     int
	Time     float64
	Particle int
	Wrapped  error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("step %d (t=%.4e s) particle %d: %v", e.Step, e.Time, e.Particle, e.Wrapped)
}

func (e *TrackError) Unwrap() error {
	return e.Wrapped
}
