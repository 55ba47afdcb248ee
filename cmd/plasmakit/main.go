package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/automation"
	"github.com/san-kum/plasmakit/internal/config"
	"github.com/san-kum/plasmakit/internal/experiment"
	"github.com/san-kum/plasmakit/internal/export"
	xlog "github.com/san-kum/plasmakit/internal/log"
	"github.com/san-kum/plasmakit/internal/plasma"
	"github.com/san-kum/plasmakit/internal/storage"
	"github.com/san-kum/plasmakit/internal/viz"
)

var (
	dataDir  string
	logLevel string
	pretty   bool

	// run configuration
	configFile    string
	preset        string
	species       string
	pusher        string
	dt            float64
	duration      float64
	snapshotEvery int
	workers       int
	runName       string

	// analysis
	quantity  string
	particle  int
	component int
	xAxis     int
	yAxis     int
	svgOut    string
	crossAxis int
	crossAt   float64
	fitFunc   string
	rootGuess float64
	fitP0     []float64
	fitScan   []string
	fitSigma  float64
	absSigma  bool
	fitIters  int
	output    string

	// live view
	theme string

	// sweeps
	sweepMin     float64
	sweepMax     float64
	sweepNum     int
	sweepLog     bool
	stableMetric string
	stableTol    float64
	trials       int
	spread       float64
	seed         int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plasmakit",
		Short: "charged particle tracking and analysis",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			xlog.Configure(xlog.Config{Level: logLevel, Pretty: pretty})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".plasmakit", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human readable logs")

	trackCmd := &cobra.Command{
		Use:   "track [preset]",
		Short: "track particles and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  trackRun,
	}
	runFlags(trackCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a quantity against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	seriesFlags(plotCmd)

	orbitCmd := &cobra.Command{
		Use:   "orbit [run_id]",
		Short: "project an orbit onto two axes",
		Args:  cobra.ExactArgs(1),
		RunE:  orbitPlot,
	}
	orbitCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	orbitCmd.Flags().IntVar(&xAxis, "x-axis", 0, "horizontal axis (0=x, 1=y, 2=z)")
	orbitCmd.Flags().IntVar(&yAxis, "y-axis", 1, "vertical axis")
	orbitCmd.Flags().StringVar(&svgOut, "svg", "", "write every particle's projection to an SVG file")
	orbitCmd.Flags().IntVar(&crossAxis, "cross-axis", -1, "report crossings of --cross-at along this axis")
	orbitCmd.Flags().Float64Var(&crossAt, "cross-at", 0, "crossing level [m]")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "power spectrum of a velocity component",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().StringVar(&quantity, "quantity", plasma.KeyVelocity, "quantity (x, v, B, E)")
	spectrumCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	spectrumCmd.Flags().IntVar(&component, "component", 0, "component (0, 1, 2)")

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [pusher1] [pusher2] ...",
		Short: "compare pushers on the same configuration",
		Args:  cobra.MinimumNArgs(2),
		RunE:  comparePushers,
	}
	runFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [preset] [path]",
		Short: "write a preset as a YAML config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			if err := config.Save(args[1], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[1])
			return nil
		},
	}

	fitCmd := &cobra.Command{
		Use:   "fit [run_id]",
		Short: "fit a function to a quantity against time",
		Args:  cobra.ExactArgs(1),
		RunE:  fitRun,
	}
	seriesFlags(fitCmd)
	fitCmd.Flags().StringVar(&fitFunc, "function", "linear", "fit function")
	fitCmd.Flags().Float64Var(&rootGuess, "root", 0, "also solve fit(t) = 0 from this initial guess [s]")
	fitCmd.Flags().Float64SliceVar(&fitP0, "p0", nil, "initial parameters in function order (default all ones)")
	fitCmd.Flags().StringArrayVar(&fitScan, "scan", nil, "grid search the start, one lo:hi:n or comma list per parameter")
	fitCmd.Flags().Float64Var(&fitSigma, "sigma", 0, "uniform uncertainty of the data (0 = unweighted)")
	fitCmd.Flags().BoolVar(&absSigma, "absolute-sigma", false, "keep the covariance in units of --sigma")
	fitCmd.Flags().IntVar(&fitIters, "max-iter", 0, "iteration limit (default 200 per parameter)")
	fitCmd.MarkFlagsMutuallyExclusive("p0", "scan")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "track with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	runFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemePlasma.Name, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "pick a preset and watch it live",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "track one configuration across a range of timesteps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	runFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1e-11, "smallest timestep")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1e-9, "largest timestep")
	sweepCmd.Flags().IntVar(&sweepNum, "num", 5, "number of timesteps")
	sweepCmd.Flags().BoolVar(&sweepLog, "log", true, "space timesteps geometrically")
	sweepCmd.Flags().StringVar(&stableMetric, "stable-metric", "", "report the largest timestep keeping this metric below --tol")
	sweepCmd.Flags().Float64Var(&stableTol, "tol", 1e-3, "tolerance for --stable-metric")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "confinement statistics over perturbed initial velocities",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	runFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 0.1, "relative velocity spread")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	rootCmd.AddCommand(trackCmd, listCmd, showCmd, plotCmd, orbitCmd, spectrumCmd, compareCmd, presetsCmd, configCmd,
		fitCmd, liveCmd, interactiveCmd, exportJSONCmd, batchCmd, sweepCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&species, "species", config.DefaultSpecies, "particle species")
	cmd.Flags().StringVar(&pusher, "pusher", config.DefaultPusher, "particle pusher")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep, in the config's time unit")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration, in the config's time unit")
	cmd.Flags().IntVar(&snapshotEvery, "snapshot", config.DefaultSnapshotEvery, "record every n steps (0 = first and last only)")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "field sampling workers")
	cmd.Flags().StringVar(&runName, "name", "", "run name")
}

func seriesFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&quantity, "quantity", plasma.KeyVelocity, "quantity (x, v, B, E)")
	cmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	cmd.Flags().IntVar(&component, "component", -1, "component (0, 1, 2), -1 for magnitude")
}

// resolveConfig applies preset, then config file, then explicit flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if preset == "" && len(args) > 0 {
		preset = args[0]
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("species") {
		cfg.Species = species
	}
	if flags.Changed("pusher") {
		cfg.Pusher = pusher
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("snapshot") {
		cfg.SnapshotEvery = snapshotEvery
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("name") {
		cfg.Name = runName
	}
	if cfg.Name == "" {
		cfg.Name = "run"
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func trackRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.Build(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("tracking %d %s with %s...\n", len(cfg.Particles), cfg.Species, cfg.Pusher)
	start := time.Now()

	sol, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Name, exp.FieldLabel(), exp.RunConfig(), sol)
	if err != nil {
		return err
	}
	logger := xlog.Derive(func(c *zerolog.Context) {
		*c = c.Str(xlog.FieldComponent, "cli").Str(xlog.FieldRunID, runID).Str(xlog.FieldPusher, cfg.Pusher)
	})
	logger.Info().Dur(xlog.FieldDuration, elapsed).Msg("run saved")

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, snapshots: %d\n", sol.Steps, sol.Len())
	printMetrics(sol.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6e\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSPECIES\tPUSHER\tFIELD\tPARTICLES\tSTEPS\tDT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3es\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Species.Name,
			run.Pusher,
			run.Field,
			run.Particles,
			run.Steps,
			run.Config.Dt,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id:\t%s\n", meta.ID)
	fmt.Fprintf(w, "created:\t%s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "species:\t%s\n", meta.Species)
	fmt.Fprintf(w, "pusher:\t%s\n", meta.Pusher)
	fmt.Fprintf(w, "field:\t%s\n", meta.Field)
	fmt.Fprintf(w, "dt:\t%.4e s\n", meta.Config.Dt)
	fmt.Fprintf(w, "duration:\t%.4e s\n", meta.Config.Duration)
	fmt.Fprintf(w, "particles:\t%d\n", meta.Particles)
	fmt.Fprintf(w, "steps:\t%d\n", meta.Steps)
	fmt.Fprintf(w, "snapshots:\t%d\n", meta.Snapshots)
	if err := w.Flush(); err != nil {
		return err
	}

	metrics := make(map[string]float64, len(meta.Metrics))
	for k, v := range meta.Metrics {
		metrics[k] = float64(v)
	}
	printMetrics(metrics)

	if fit, err := st.LoadFit(meta.ID); err == nil {
		fmt.Printf("\nfit (%s of %s, particle %d):\n  %s\n", fit.Function, fit.Quantity, fit.Particle, fit.Formula)
	}
	return nil
}

// series returns one particle's quantity over time, either a component or
// the magnitude when component is negative.
func series(sol *plasma.Solution, key string, particle, component int) ([]float64, error) {
	if component >= 0 {
		return sol.Component(key, particle, component)
	}
	norms, err := sol.VectorNorm(key)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(norms))
	for i, row := range norms {
		if particle < 0 || particle >= len(row) {
			return nil, fmt.Errorf("%w: particle %d of %d", plasma.ErrDimensionMismatch, particle, len(row))
		}
		out[i] = row[particle]
	}
	return out, nil
}

func seriesLabel(sol *plasma.Solution) string {
	axis := "|" + quantity + "|"
	if component >= 0 {
		axis = fmt.Sprintf("%s[%d]", quantity, component)
	}
	return fmt.Sprintf("%s [%s], particle %d", axis, sol.Units[quantity], particle)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	data, err := series(sol, quantity, particle, component)
	if err != nil {
		return err
	}
	if len(data) < 2 {
		return fmt.Errorf("not enough snapshots to plot")
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("samples: %d\n\n", len(data))
	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(seriesLabel(sol)+" vs time"),
	)
	fmt.Println(graph)
	return nil
}

func orbitPlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}

	proj, err := analysis.ProjectOrbit(sol, particle, xAxis, yAxis)
	if err != nil {
		return err
	}
	fmt.Println(analysis.ProjectionToASCII(proj, 80, 30))

	if crossAxis >= 0 {
		pts, err := analysis.Crossings(sol, particle, crossAxis, crossAt, xAxis, yAxis)
		if err != nil {
			return err
		}
		fmt.Printf("%d crossings of %g m along axis %d\n", len(pts), crossAt, crossAxis)
		for _, p := range pts {
			fmt.Printf("  (%.4e, %.4e)\n", p.X, p.Y)
		}
	}

	if svgOut == "" {
		return nil
	}
	projs := make([]*analysis.OrbitProjection, 0, sol.NumParticles())
	for i := 0; i < sol.NumParticles(); i++ {
		p, err := analysis.ProjectOrbit(sol, i, xAxis, yAxis)
		if err != nil {
			return err
		}
		projs = append(projs, p)
	}
	f, err := os.Create(svgOut)
	if err != nil {
		return err
	}
	if err := export.OrbitsSVG(f, projs, 800, 600); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	data, err := sol.Component(quantity, particle, component)
	if err != nil {
		return err
	}
	if len(sol.Times) < 2 {
		return fmt.Errorf("not enough snapshots for a spectrum")
	}
	sampleDt := sol.Times[1] - sol.Times[0]

	power := analysis.PowerSpectrum(data)
	if len(power) > 1 {
		fmt.Println(asciigraph.Plot(power[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		))
	}

	freq, err := analysis.DominantFrequency(data, sampleDt)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun: %s (%s, %s)\n", meta.ID, meta.Species, meta.Pusher)
	fmt.Printf("dominant frequency: %.6e Hz\n", freq)

	bNorm, err := sol.VectorNorm(plasma.KeyBField)
	if err == nil && len(bNorm) > 0 {
		var mean float64
		for _, row := range bNorm {
			mean += row[particle]
		}
		mean /= float64(len(bNorm))
		fmt.Printf("gyrofrequency at mean |B| = %.4e T: %.6e Hz\n", mean, analysis.GyroFrequency(sol.Species, mean))
	}
	return nil
}

func comparePushers(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	names := args[1:]

	exp, err := experiment.Build(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing pushers on %s: %v\n\n", cfg.Name, names)
	start := time.Now()
	sols, err := exp.Compare(ctx, names)
	if err != nil {
		return err
	}

	metricNames := make([]string, 0)
	for name := range sols[0].Metrics {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PUSHER\tSTEPS\t%s\n", strings.ToUpper(strings.Join(metricNames, "\t")))
	for _, sol := range sols {
		fmt.Fprintf(w, "%s\t%d", sol.Pusher, sol.Steps)
		for _, m := range metricNames {
			fmt.Fprintf(w, "\t%.4e", sol.Metrics[m])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSPECIES\tPUSHER\tFIELD\tPARTICLES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", name, p.Species, p.Pusher, p.Field.Type, len(p.Particles))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.Build(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(viz.NewModel(exp, cfg.Name).WithTheme(theme))
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}

	if output == "" {
		return storage.ExportJSON(os.Stdout, meta, sol)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(f, meta, sol); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tPUSHER\tSTEPS\tENERGY DRIFT")
	for _, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4e\n", r.Name, runID, r.Solution.Pusher, r.Solution.Steps, r.Solution.Metrics["energy_drift"])
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	sweep := &automation.DtSweep{
		Base:    cfg,
		Min:     sweepMin,
		Max:     sweepMax,
		Num:     sweepNum,
		Log:     sweepLog,
		Workers: cfg.Workers,
	}
	reg := experiment.NewRegistry()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, sweep, reg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tENERGY DRIFT\tMU DRIFT\tERROR")
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%.3e\t%d\t%.4e\t%.4e\t%s\n", r.Dt, r.Steps, r.Metrics["energy_drift"], r.Metrics["mu_drift"], errText)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if stableMetric == "" {
		return nil
	}
	best, metrics, err := automation.LargestStableDt(ctx, sweep, reg, stableMetric, stableTol)
	if err != nil {
		return err
	}
	fmt.Printf("\nlargest dt with %s <= %g: %.3e (%s = %.4e)\n", stableMetric, stableTol, best, stableMetric, metrics[stableMetric])
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:   cfg,
		Spread: spread,
		Trials: trials,
		Seed:   seed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	confined, escaped := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\n", len(results))
	fmt.Printf("confined within %.3g m: %d (%.1f%%)\n", cfg.RadiusSI(), confined, 100*float64(confined)/float64(len(results)))
	fmt.Printf("escaped: %d\n", escaped)
	return nil
}
