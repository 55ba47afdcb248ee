package tracker

import "github.com/san-kum/plasmakit/internal/plasma"

// Stepper advances a tracker's particles a few pushes at a time, for
// callers such as the live view that render between steps. Metrics and
// observers attached to the tracker are not fed.
type Stepper struct {
	t       *Tracker
	dt      float64
	workers int
	step    int
	x, v    []plasma.Vec3
	b, e    []plasma.Vec3
}

func (t *Tracker) Stepper(dt float64, workers int) *Stepper {
	s := &Stepper{t: t, dt: dt, workers: workers}
	s.Reset()
	return s
}

// Reset restores the initial conditions.
func (s *Stepper) Reset() {
	n := len(s.t.x0)
	s.step = 0
	s.x = plasma.CloneVecs(s.t.x0)
	s.v = plasma.CloneVecs(s.t.v0)
	s.b = make([]plasma.Vec3, n)
	s.e = make([]plasma.Vec3, n)
	s.t.sample(s.x, s.b, s.e, 0, s.workers)
}

// Step pushes n times. It stops at the first invalid state, which is
// returned as a TrackError.
func (s *Stepper) Step(n int) error {
	q, m := s.t.species.Charge, s.t.species.Mass
	for i := 0; i < n; i++ {
		s.t.pusher.Push(s.x, s.v, s.b, s.e, q, m, s.dt)
		s.step++
		now := s.Time()
		if err := validate(s.x, s.v); err != nil {
			err.Step, err.Time = s.step, now
			return err
		}
		s.t.sample(s.x, s.b, s.e, now, s.workers)
	}
	return nil
}

func (s *Stepper) Steps() int    { return s.step }
func (s *Stepper) Time() float64 { return float64(s.step) * s.dt }
func (s *Stepper) Dt() float64   { return s.dt }

// State returns the live particle arrays. They are overwritten by the next
// Step.
func (s *Stepper) State() (x, v, b []plasma.Vec3) { return s.x, s.v, s.b }
