package tracker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// MetricFactory builds a fresh metric for each ensemble member.
type MetricFactory func() plasma.Metric

// RunEnsemble runs the tracker's initial conditions once per pusher,
// concurrently. Solutions are returned in pusher order. The first failure
// cancels the remaining runs.
func (t *Tracker) RunEnsemble(ctx context.Context, cfg plasma.Config, pushers []plasma.Pusher, metrics ...MetricFactory) ([]*plasma.Solution, error) {
	if len(pushers) == 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one pusher", plasma.ErrInvalidConfig)
	}

	members := make([]*Tracker, len(pushers))
	for i, p := range pushers {
		member, err := New(t.source, t.species, t.x0, t.v0, p)
		if err != nil {
			return nil, fmt.Errorf("ensemble member %d: %w", i, err)
		}
		for _, factory := range metrics {
			member.AddMetric(factory())
		}
		members[i] = member
	}

	results := make([]*plasma.Solution, len(pushers))
	g, ctx := errgroup.WithContext(ctx)
	for i, member := range members {
		g.Go(func() error {
			sol, err := member.Run(ctx, cfg)
			results[i] = sol
			if err != nil {
				return fmt.Errorf("%s: %w", pushers[i].Name(), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
