// Package tracker integrates charged particle orbits through a field source.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	xlog "github.com/san-kum/plasmakit/internal/log"
	"github.com/san-kum/plasmakit/internal/plasma"
)

const fieldChunk = 64

type Tracker struct {
	source    plasma.FieldSource
	species   plasma.Species
	x0, v0    []plasma.Vec3
	pusher    plasma.Pusher
	metrics   []plasma.Metric
	observers []plasma.Observer
	log       zerolog.Logger
}

// New validates the initial conditions and prepares a tracker. x0 and v0 are
// copied.
func New(source plasma.FieldSource, species plasma.Species, x0, v0 []plasma.Vec3, pusher plasma.Pusher) (*Tracker, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil field source", plasma.ErrInvalidConfig)
	}
	if pusher == nil {
		return nil, fmt.Errorf("%w: nil pusher", plasma.ErrInvalidConfig)
	}
	if !(species.Mass > 0) {
		return nil, fmt.Errorf("%w: species %s has mass %g", plasma.ErrInvalidConfig, species.Name, species.Mass)
	}
	if len(x0) == 0 || len(x0) != len(v0) {
		return nil, fmt.Errorf("%w: %d positions, %d velocities", plasma.ErrDimensionMismatch, len(x0), len(v0))
	}
	if i := plasma.ValidVecs(x0); i >= 0 {
		return nil, &plasma.TrackError{Particle: i, Wrapped: plasma.ErrInvalidState}
	}
	if i := plasma.ValidVecs(v0); i >= 0 {
		return nil, &plasma.TrackError{Particle: i, Wrapped: plasma.ErrInvalidState}
	}
	c2 := plasma.SpeedOfLight * plasma.SpeedOfLight
	for i, v := range v0 {
		if v.Norm2() >= c2 {
			return nil, &plasma.TrackError{Particle: i, Wrapped: plasma.ErrSuperluminal}
		}
	}

	return &Tracker{
		source:  source,
		species: species,
		x0:      plasma.CloneVecs(x0),
		v0:      plasma.CloneVecs(v0),
		pusher:  pusher,
		log:     xlog.WithComponent("tracker"),
	}, nil
}

func (t *Tracker) AddMetric(m plasma.Metric)     { t.metrics = append(t.metrics, m) }
func (t *Tracker) AddObserver(o plasma.Observer) { t.observers = append(t.observers, o) }

func (t *Tracker) Species() plasma.Species { return t.species }
func (t *Tracker) Pusher() plasma.Pusher   { return t.pusher }
func (t *Tracker) NumParticles() int       { return len(t.x0) }

func (t *Tracker) sample(x, b, e []plasma.Vec3, now float64, workers int) {
	plasma.ParallelFor(len(x), fieldChunk, workers, func(start, end int) {
		for i := start; i < end; i++ {
			b[i], e[i] = t.source.Fields(x[i], now)
		}
	})
}

// Run integrates for cfg.Duration. Snapshots are kept every SnapshotEvery
// steps plus the initial and final states; SnapshotEvery = 0 keeps only
// those two. On cancellation or an invalid state the partial solution is
// returned with the error.
func (t *Tracker) Run(ctx context.Context, cfg plasma.Config) (*plasma.Solution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	every := cfg.SnapshotEvery
	capacity := 2
	if every > 0 {
		capacity = steps/every + 2
	}
	sol := plasma.NewSolution(t.species, t.pusher.Name(), capacity)

	n := len(t.x0)
	x := plasma.CloneVecs(t.x0)
	v := plasma.CloneVecs(t.v0)
	b := make([]plasma.Vec3, n)
	e := make([]plasma.Vec3, n)
	q, m, dt := t.species.Charge, t.species.Mass, cfg.Dt

	for _, mt := range t.metrics {
		mt.Reset()
	}

	t.log.Debug().
		Str(xlog.FieldPusher, t.pusher.Name()).
		Str(xlog.FieldSpecies, t.species.Name).
		Int(xlog.FieldParticles, n).
		Int(xlog.FieldSteps, steps).
		Float64("dt", dt).
		Msg("run started")
	start := time.Now()

	now := 0.0
	t.sample(x, b, e, now, cfg.Workers)
	sol.Record(now, x, v, b, e)
	t.observe(0, now, x, v, b)

	finish := func(taken int, err error) (*plasma.Solution, error) {
		sol.Steps = taken
		for _, mt := range t.metrics {
			sol.Metrics[mt.Name()] = mt.Value()
		}
		ev := t.log.Debug()
		if err != nil {
			ev = t.log.Warn().Err(err)
		}
		ev.Str(xlog.FieldPusher, t.pusher.Name()).
			Int(xlog.FieldSteps, taken).
			Dur(xlog.FieldDuration, time.Since(start)).
			Msg("run finished")
		return sol, err
	}

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			if sol.Times[sol.Len()-1] != now {
				sol.Record(now, x, v, b, e)
			}
			return finish(i-1, ctx.Err())
		default:
		}

		t.pusher.Push(x, v, b, e, q, m, dt)
		now = float64(i) * dt

		if cfg.ValidateState {
			if err := validate(x, v); err != nil {
				err.Step, err.Time = i, now
				return finish(i-1, err)
			}
		}

		t.sample(x, b, e, now, cfg.Workers)
		t.observe(i, now, x, v, b)

		if i == steps || (every > 0 && i%every == 0) {
			sol.Record(now, x, v, b, e)
		}
	}

	return finish(steps, nil)
}

func (t *Tracker) observe(step int, now float64, x, v, b []plasma.Vec3) {
	for _, mt := range t.metrics {
		mt.Observe(now, x, v, b)
	}
	for _, o := range t.observers {
		o.OnStep(step, now, x, v)
	}
}

func validate(x, v []plasma.Vec3) *plasma.TrackError {
	if i := plasma.ValidVecs(x); i >= 0 {
		return &plasma.TrackError{Particle: i, Wrapped: plasma.ErrInvalidState}
	}
	if i := plasma.ValidVecs(v); i >= 0 {
		return &plasma.TrackError{Particle: i, Wrapped: plasma.ErrInvalidState}
	}
	return nil
}
