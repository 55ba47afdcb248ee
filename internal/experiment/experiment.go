package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/plasmakit/internal/config"
	"github.com/san-kum/plasmakit/internal/fields"
	"github.com/san-kum/plasmakit/internal/grids"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/tracker"
	"github.com/san-kum/plasmakit/internal/units"
)

// Experiment is a configured tracker ready to run.
type Experiment struct {
	cfg       *config.Config
	run       plasma.Config
	species   plasma.Species
	source    plasma.FieldSource
	tracker   *tracker.Tracker
	factories []tracker.MetricFactory
	reg       *Registry
}

// Build validates cfg and wires species, field, pusher and metrics into a
// tracker.
func Build(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	species, err := plasma.LookupSpecies(cfg.Species)
	if err != nil {
		return nil, err
	}
	run, err := cfg.RunConfig()
	if err != nil {
		return nil, err
	}
	field, err := cfg.FieldSI()
	if err != nil {
		return nil, err
	}
	source, err := reg.GetField(field)
	if err != nil {
		return nil, err
	}
	pusher, err := reg.GetPusher(cfg.Pusher, cfg.Workers)
	if err != nil {
		return nil, err
	}
	x0, v0, err := cfg.InitialState()
	if err != nil {
		return nil, err
	}

	tr, err := tracker.New(source, species, x0, v0, pusher)
	if err != nil {
		return nil, err
	}

	names := cfg.Metrics
	if len(names) == 0 {
		names = DefaultMetrics
	}
	factories, err := reg.MetricFactories(names, species, cfg)
	if err != nil {
		return nil, err
	}
	for _, f := range factories {
		tr.AddMetric(f())
	}

	return &Experiment{
		cfg:       cfg,
		run:       run,
		species:   species,
		source:    source,
		tracker:   tr,
		factories: factories,
		reg:       reg,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*plasma.Solution, error) {
	return e.tracker.Run(ctx, e.run)
}

// Compare runs the same initial conditions with each named pusher
// concurrently.
func (e *Experiment) Compare(ctx context.Context, names []string) ([]*plasma.Solution, error) {
	ps := make([]plasma.Pusher, len(names))
	for i, name := range names {
		p, err := e.reg.GetPusher(name, e.cfg.Workers)
		if err != nil {
			return nil, err
		}
		ps[i] = p
	}
	return e.tracker.RunEnsemble(ctx, e.run, ps, e.factories...)
}

func (e *Experiment) Tracker() *tracker.Tracker  { return e.tracker }
func (e *Experiment) RunConfig() plasma.Config   { return e.run }
func (e *Experiment) Species() plasma.Species    { return e.species }
func (e *Experiment) Source() plasma.FieldSource { return e.source }
func (e *Experiment) Config() *config.Config     { return e.cfg }

// FieldLabel names the field for run metadata, e.g. "mirror" or
// "mirror/grid".
func (e *Experiment) FieldLabel() string {
	if e.cfg.Field.Grid != nil {
		return e.cfg.Field.Type + "/grid"
	}
	return e.cfg.Field.Type
}

// sampleOnGrid evaluates src at t = 0 on every vertex of a Cartesian grid
// spanning gc (in metres).
func sampleOnGrid(src plasma.FieldSource, gc config.GridConfig) (plasma.FieldSource, error) {
	var start, stop [3]units.Quantity
	for i := 0; i < 3; i++ {
		start[i] = units.Q(gc.Min[i], units.Meter)
		stop[i] = units.Q(gc.Max[i], units.Meter)
	}
	g, err := grids.NewCartesian(start, stop, gc.Points)
	if err != nil {
		return nil, fmt.Errorf("experiment: field grid: %w", err)
	}

	for axis := 0; axis < 3; axis++ {
		if err := g.AddQuantityFunc(fields.BKeys[axis], units.Tesla, func(x, y, z float64) float64 {
			b, _ := src.Fields(plasma.Vec3{x, y, z}, 0)
			return b[axis]
		}); err != nil {
			return nil, err
		}
		if err := g.AddQuantityFunc(fields.EKeys[axis], units.VoltPerM, func(x, y, z float64) float64 {
			_, e := src.Fields(plasma.Vec3{x, y, z}, 0)
			return e[axis]
		}); err != nil {
			return nil, err
		}
	}
	return fields.NewGridField(g, fields.Interpolation(gc.Interpolation))
}
