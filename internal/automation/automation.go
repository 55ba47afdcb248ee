package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/plasmakit/internal/config"
	"github.com/san-kum/plasmakit/internal/experiment"
	xlog "github.com/san-kum/plasmakit/internal/log"
	"github.com/san-kum/plasmakit/internal/metrics"
	"github.com/san-kum/plasmakit/internal/optim"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/storage"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted sequence of tracker runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file and overrides the
// fields that are set.
type ScenarioStep struct {
	Preset   string   `yaml:"preset"`
	Config   string   `yaml:"config"`
	Species  string   `yaml:"species"`
	Pusher   string   `yaml:"pusher"`
	Dt       float64  `yaml:"dt"`
	Duration float64  `yaml:"duration"`
	Metrics  []string `yaml:"metrics"`
	SaveAs   string   `yaml:"save_as"`
}

type StepResult struct {
	Name     string
	RunID    string
	Solution *plasma.Solution
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidScenario, path)
	}
	return &scenario, nil
}

// Resolve builds the run configuration for the step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "" && s.Config != "":
		return nil, fmt.Errorf("%w: step sets both preset %q and config %q", ErrInvalidScenario, s.Preset, s.Config)
	case s.Preset != "":
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidScenario, s.Preset)
		}
	case s.Config != "":
		var err error
		if cfg, err = config.Load(s.Config); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Species != "" {
		cfg.Species = s.Species
	}
	if s.Pusher != "" {
		cfg.Pusher = s.Pusher
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if len(s.Metrics) > 0 {
		cfg.Metrics = s.Metrics
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes every step in order. Steps with save_as are stored
// when st is not nil. Results of completed steps are returned on failure.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	logger := xlog.WithComponent("automation")
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info().
			Int("step", i+1).
			Int("of", len(scenario.Steps)).
			Str(xlog.FieldPusher, cfg.Pusher).
			Str(xlog.FieldSpecies, cfg.Species).
			Msg("running scenario step")

		exp, err := experiment.Build(reg, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		sol, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		res := StepResult{Name: cfg.Name, Solution: sol}
		if step.SaveAs != "" && st != nil {
			if res.RunID, err = st.Save(step.SaveAs, exp.FieldLabel(), exp.RunConfig(), sol); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			logger.Info().Str(xlog.FieldRunID, res.RunID).Msg("saved scenario step")
		}
		results = append(results, res)
	}

	return results, nil
}

// DtSweep runs one base configuration across a range of timesteps.
type DtSweep struct {
	Base *config.Config
	Min  float64
	Max  float64
	Num  int
	// Log spaces the timesteps geometrically.
	Log bool
	// Workers bounds concurrent runs; 0 runs them all at once.
	Workers int
}

type SweepResult struct {
	Dt      float64
	Steps   int
	Metrics map[string]float64
	Err     error
}

// Values returns the timesteps of the sweep, in the base config's time unit.
func (s *DtSweep) Values() ([]float64, error) {
	if s.Num < 1 || !(s.Min > 0) || s.Max < s.Min {
		return nil, fmt.Errorf("%w: need 0 < min <= max and num >= 1, got %g, %g, %d", ErrInvalidScenario, s.Min, s.Max, s.Num)
	}
	if s.Num == 1 {
		return []float64{s.Min}, nil
	}
	if s.Log {
		return floats.LogSpan(make([]float64, s.Num), s.Min, s.Max), nil
	}
	return optim.Linspace(s.Min, s.Max, s.Num), nil
}

// RunSweep tracks the base config once per timestep. A failing member is
// reported in its SweepResult and does not stop the others.
func RunSweep(ctx context.Context, sweep *DtSweep, reg *experiment.Registry) ([]SweepResult, error) {
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}
	logger := xlog.WithComponent("automation")

	results := make([]SweepResult, len(values))
	g, ctx := errgroup.WithContext(ctx)
	if sweep.Workers > 0 {
		g.SetLimit(sweep.Workers)
	}

	for i, dt := range values {
		g.Go(func() error {
			cfg := sweep.Base.Clone()
			cfg.Dt = dt
			results[i] = SweepResult{Dt: dt}

			exp, err := experiment.Build(reg, cfg)
			if err != nil {
				results[i].Err = err
				return nil
			}
			sol, err := exp.Run(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			results[i].Err = err
			if sol != nil {
				results[i].Steps = sol.Steps
				results[i].Metrics = sol.Metrics
			}
			logger.Debug().Float64("dt", dt).Err(err).Msg("sweep member finished")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// LargestStableDt grid searches the sweep's timesteps for the largest one
// whose metric stays at or below tol.
func LargestStableDt(ctx context.Context, sweep *DtSweep, reg *experiment.Registry, metric string, tol float64) (float64, map[string]float64, error) {
	values, err := sweep.Values()
	if err != nil {
		return 0, nil, err
	}
	search, err := optim.NewGridSearch([]string{"dt"}, [][]float64{values})
	if err != nil {
		return 0, nil, err
	}

	found := make(map[float64]map[string]float64)
	best, _, err := search.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := sweep.Base.Clone()
		cfg.Dt = params["dt"]
		names := cfg.Metrics
		if len(names) == 0 {
			names = experiment.DefaultMetrics
		}
		if !contains(names, metric) {
			cfg.Metrics = append(append([]string(nil), names...), metric)
		}
		exp, err := experiment.Build(reg, cfg)
		if err != nil {
			return 0, err
		}
		sol, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		v, ok := sol.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("%w: metric %q was not recorded", ErrInvalidScenario, metric)
		}
		if math.IsNaN(v) || v > tol {
			return math.NaN(), nil
		}
		found[cfg.Dt] = sol.Metrics
		return -cfg.Dt, nil
	})
	if err != nil {
		if errors.Is(err, optim.ErrNoCandidate) {
			return 0, nil, fmt.Errorf("no timestep keeps %s below %g: %w", metric, tol, err)
		}
		return 0, nil, err
	}
	return best["dt"], found[best["dt"]], nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MonteCarloConfig perturbs the initial velocities of a base config.
type MonteCarloConfig struct {
	Base *config.Config
	// Spread is the relative standard deviation of each velocity component.
	Spread float64
	Trials int
	Seed   int64
}

type MonteCarloResult struct {
	TrialID  int
	InitialV []plasma.Vec3
	FinalX   []plasma.Vec3
	Confined bool
	Metrics  map[string]float64
}

// RunMonteCarlo tracks Trials perturbed copies of the base config. A trial
// is confined when every particle ends within the config's radius.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive", ErrInvalidScenario)
	}
	logger := xlog.WithComponent("automation")

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	radius := cfg.Base.RadiusSI()
	results := make([]MonteCarloResult, 0, cfg.Trials)

	for trial := 0; trial < cfg.Trials; trial++ {
		run := cfg.Base.Clone()
		for i := range run.Particles {
			speed := plasma.Vec3(run.Particles[i].V).Norm()
			for k := range run.Particles[i].V {
				run.Particles[i].V[k] += rng.NormFloat64() * cfg.Spread * speed
			}
		}

		exp, err := experiment.Build(reg, run)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}
		sol, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		conf := metrics.NewConfinement(radius)
		final := sol.X[sol.Len()-1]
		conf.Observe(0, final, nil, nil)

		_, v0, _ := run.InitialState()
		results = append(results, MonteCarloResult{
			TrialID:  trial,
			InitialV: v0,
			FinalX:   final,
			Confined: conf.Value() == 1,
			Metrics:  sol.Metrics,
		})

		if (trial+1)%10 == 0 {
			logger.Info().Int("trials", trial+1).Int("of", cfg.Trials).Msg("monte carlo progress")
		}
	}

	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (confined int, escaped int) {
	for _, r := range results {
		if r.Confined {
			confined++
		} else {
			escaped++
		}
	}
	return
}
