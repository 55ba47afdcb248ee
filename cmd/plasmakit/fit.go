package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/experiment"
	xlog "github.com/san-kum/plasmakit/internal/log"
	"github.com/san-kum/plasmakit/internal/optim"
	"github.com/san-kum/plasmakit/internal/storage"
)

func fitRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	sol, err := st.LoadSolution(args[0])
	if err != nil {
		return err
	}
	fn, err := experiment.NewRegistry().GetFitFunction(fitFunc)
	if err != nil {
		return err
	}
	ydata, err := series(sol, quantity, particle, component)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts, err := fitOptions(ctx, fn, sol.Times, ydata)
	if err != nil {
		return err
	}
	if fitScan != nil {
		fmt.Printf("scan start: %v\n", opts.InitialParams)
	}

	fit, err := analysis.CurveFit(fn, sol.Times, ydata, opts)
	if fit == nil {
		return err
	}
	if err != nil {
		// a partial fit is still reported and saved
		logger := xlog.WithComponent("cli")
		logger.Warn().Err(err).Str(xlog.FieldRunID, args[0]).Msg("fit incomplete")
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	fmt.Printf("fit: %s\n", fit)
	fmt.Printf("data: %s\n", seriesLabel(sol))
	names := fn.ParamNames()
	for i, p := range fit.Params {
		fmt.Printf("  %s = %.6e ± %.2e\n", names[i], p, fit.ParamErrors[i])
	}
	fmt.Printf("chi2 = %.4e (dof %d), R2 = %.6f, converged = %v after %d iterations\n",
		fit.ChiSq, fit.DOF, fit.RSquared, fit.Converged, fit.Iterations)

	if cmd.Flags().Changed("root") {
		root, rootErr, err := fit.Root(rootGuess)
		if err != nil {
			return err
		}
		fmt.Printf("root: t = %.6e ± %.2e s\n", root, rootErr)
	}

	label := quantity
	if component >= 0 {
		label = fmt.Sprintf("%s[%d]", quantity, component)
	}
	if err := st.SaveFit(args[0], storage.NewFitReport(fit, label, particle)); err != nil {
		return err
	}
	fmt.Printf("saved fit to run %s\n", args[0])
	return nil
}

// fitOptions builds the fitter options from the fit flags. A scan replaces
// the starting point with the best grid point.
func fitOptions(ctx context.Context, fn analysis.FitFunction, x, y []float64) (analysis.FitOptions, error) {
	opts := analysis.FitOptions{
		InitialParams: fitP0,
		AbsoluteSigma: absSigma,
		MaxIterations: fitIters,
	}
	if fitSigma < 0 {
		return opts, fmt.Errorf("--sigma must not be negative, got %g", fitSigma)
	}
	if fitSigma > 0 {
		opts.Sigma = make([]float64, len(y))
		floats.AddConst(fitSigma, opts.Sigma)
	}
	if opts.InitialParams != nil && len(opts.InitialParams) != fn.NumParams() {
		return opts, fmt.Errorf("--p0 has %d values, %s takes %v", len(opts.InitialParams), fn.Name(), fn.ParamNames())
	}

	if fitScan != nil {
		ranges, err := parseScanRanges(fitScan, fn.ParamNames())
		if err != nil {
			return opts, err
		}
		p0, err := analysis.ScanInitialParams(ctx, fn, x, y, ranges)
		if err != nil {
			return opts, err
		}
		opts.InitialParams = p0
	}
	return opts, nil
}

// parseScanRanges reads one range per parameter, either lo:hi:n for n evenly
// spaced values or an explicit comma separated list.
func parseScanRanges(specs []string, names []string) ([][]float64, error) {
	if len(specs) != len(names) {
		return nil, fmt.Errorf("--scan given %d times, want one per parameter %v", len(specs), names)
	}
	ranges := make([][]float64, len(specs))
	for i, s := range specs {
		r, err := parseScanRange(s)
		if err != nil {
			return nil, fmt.Errorf("--scan %s: %w", names[i], err)
		}
		ranges[i] = r
	}
	return ranges, nil
}

func parseScanRange(s string) ([]float64, error) {
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%q needs at least one point", s)
		}
		return optim.Linspace(lo, hi, n), nil
	}

	var out []float64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
