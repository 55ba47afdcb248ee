package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/config"
	"github.com/san-kum/plasmakit/internal/fields"
	"github.com/san-kum/plasmakit/internal/metrics"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/pushers"
	"github.com/san-kum/plasmakit/internal/tracker"
)

var (
	ErrUnknownField  = errors.New("experiment: unknown field type")
	ErrUnknownMetric = errors.New("experiment: unknown metric")
)

// DefaultMetrics are attached when a config names none.
var DefaultMetrics = []string{"energy_drift", "mu_drift", "gyroradius"}

// FieldBuilder constructs a field source from a field section in SI.
type FieldBuilder func(f config.FieldConfig) plasma.FieldSource

// MetricBuilder constructs a metric for one run of cfg.
type MetricBuilder func(sp plasma.Species, cfg *config.Config) plasma.Metric

type Registry struct {
	fields  map[string]FieldBuilder
	metrics map[string]MetricBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		fields:  make(map[string]FieldBuilder),
		metrics: make(map[string]MetricBuilder),
	}

	r.fields[config.FieldUniform] = func(f config.FieldConfig) plasma.FieldSource {
		return fields.NewUniform(f.B, f.E)
	}
	r.fields[config.FieldToroidal] = func(f config.FieldConfig) plasma.FieldSource {
		return &fields.Toroidal{Current: f.Current, Vertical: f.Vertical}
	}
	r.fields[config.FieldMirror] = func(f config.FieldConfig) plasma.FieldSource {
		return &fields.Mirror{B0: f.B0, L: f.Length}
	}

	r.metrics["energy_drift"] = func(sp plasma.Species, _ *config.Config) plasma.Metric {
		return metrics.NewEnergyDrift(sp)
	}
	r.metrics["mu_drift"] = func(sp plasma.Species, _ *config.Config) plasma.Metric {
		return metrics.NewMagneticMomentDrift(sp)
	}
	r.metrics["gyroradius"] = func(sp plasma.Species, _ *config.Config) plasma.Metric {
		return metrics.NewGyroRadius(sp)
	}
	r.metrics["confinement"] = func(_ plasma.Species, cfg *config.Config) plasma.Metric {
		return metrics.NewConfinement(cfg.RadiusSI())
	}

	return r
}

func (r *Registry) RegisterField(name string, fn FieldBuilder)   { r.fields[name] = fn }
func (r *Registry) RegisterMetric(name string, fn MetricBuilder) { r.metrics[name] = fn }

func (r *Registry) GetPusher(name string, workers int) (plasma.Pusher, error) {
	return pushers.LookupWorkers(name, workers)
}

// GetField builds the field for f, which must already be in SI. A grid
// section replaces the analytic source with its interpolated samples.
func (r *Registry) GetField(f config.FieldConfig) (plasma.FieldSource, error) {
	fn, ok := r.fields[f.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownField, f.Type, r.ListFields())
	}
	src := fn(f)
	if f.Grid == nil {
		return src, nil
	}
	return sampleOnGrid(src, *f.Grid)
}

func (r *Registry) GetMetric(name string, sp plasma.Species, cfg *config.Config) (plasma.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMetric, name, r.ListMetrics())
	}
	return fn(sp, cfg), nil
}

// MetricFactories resolves metric names into per-run factories.
func (r *Registry) MetricFactories(names []string, sp plasma.Species, cfg *config.Config) ([]tracker.MetricFactory, error) {
	out := make([]tracker.MetricFactory, 0, len(names))
	for _, name := range names {
		fn, ok := r.metrics[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMetric, name, r.ListMetrics())
		}
		out = append(out, func() plasma.Metric { return fn(sp, cfg) })
	}
	return out, nil
}

func (r *Registry) GetFitFunction(name string) (analysis.FitFunction, error) {
	return analysis.LookupFitFunction(name)
}

func (r *Registry) ListPushers() []string      { return pushers.Names() }
func (r *Registry) ListFitFunctions() []string { return analysis.FitFunctionNames() }
func (r *Registry) ListFields() []string       { return sortedKeys(r.fields) }
func (r *Registry) ListMetrics() []string      { return sortedKeys(r.metrics) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
