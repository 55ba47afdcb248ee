package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/plasmakit/internal/optim"
)

var (
	ErrInvalidData    = errors.New("analysis: invalid fit data")
	ErrSingularMatrix = errors.New("analysis: singular normal matrix")
	ErrNotConverged   = errors.New("analysis: fit did not converge")
)

const (
	DefaultTol     = 1.49012e-8
	DefaultLambda0 = 1e-3
	maxLambda      = 1e16
	maxCond        = 1e14
)

type FitOptions struct {
	InitialParams []float64 `json:"initial_params,omitempty" yaml:"initial_params,omitempty"`
	Sigma         []float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
	// AbsoluteSigma keeps the covariance in the units of Sigma instead of
	// rescaling it by the reduced chi-square.
	AbsoluteSigma bool    `json:"absolute_sigma" yaml:"absolute_sigma"`
	MaxIterations int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	FTol          float64 `json:"ftol,omitempty" yaml:"ftol,omitempty"`
	XTol          float64 `json:"xtol,omitempty" yaml:"xtol,omitempty"`
	Lambda0       float64 `json:"lambda0,omitempty" yaml:"lambda0,omitempty"`
}

func (o FitOptions) withDefaults(k int) FitOptions {
	if o.InitialParams == nil {
		o.InitialParams = make([]float64, k)
		for i := range o.InitialParams {
			o.InitialParams[i] = 1
		}
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 200 * (k + 1)
	}
	if o.FTol <= 0 {
		o.FTol = DefaultTol
	}
	if o.XTol <= 0 {
		o.XTol = DefaultTol
	}
	if o.Lambda0 <= 0 {
		o.Lambda0 = DefaultLambda0
	}
	return o
}

// Fit is the result of [CurveFit].
type Fit struct {
	Function    FitFunction
	Params      []float64
	ParamErrors []float64
	Covariance  *mat.SymDense
	ChiSq       float64
	DOF         int
	RSquared    float64
	Iterations  int
	Converged   bool
}

func (f *Fit) Eval(x float64) float64 {
	return f.Function.Eval(x, f.Params)
}

// EvalErr evaluates the fit and its uncertainty, treating the parameters as
// independent and x as carrying error xErr.
func (f *Fit) EvalErr(x, xErr float64) (y, yErr float64) {
	grad := make([]float64, len(f.Params))
	f.Function.Gradient(x, f.Params, grad)
	y = f.Eval(x)
	yErr = Quadrature(PropagateIndependent(grad, f.ParamErrors), f.Function.DerivX(x, f.Params)*xErr)
	return y, yErr
}

// EvalErrCov is EvalErr with the full parameter covariance. Without a
// covariance it falls back to EvalErr.
func (f *Fit) EvalErrCov(x, xErr float64) (y, yErr float64) {
	if f.Covariance == nil {
		return f.EvalErr(x, xErr)
	}
	grad := make([]float64, len(f.Params))
	f.Function.Gradient(x, f.Params, grad)
	y = f.Eval(x)
	yErr = Quadrature(PropagateCovariance(grad, f.Covariance), f.Function.DerivX(x, f.Params)*xErr)
	return y, yErr
}

// Param returns a fitted parameter and its standard error by name.
func (f *Fit) Param(name string) (value, stdErr float64, err error) {
	for i, n := range f.Function.ParamNames() {
		if n == name {
			return f.Params[i], f.ParamErrors[i], nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q not in %v", ErrUnknownParam, name, f.Function.ParamNames())
}

func (f *Fit) String() string {
	return f.Function.Format(f.Params)
}

type problem struct {
	fn   FitFunction
	x, y []float64
	w    []float64
	grad []float64
}

func (p *problem) chiSq(params []float64) float64 {
	var sum float64
	for i, x := range p.x {
		r := (p.y[i] - p.fn.Eval(x, params)) * p.w[i]
		sum += r * r
	}
	return sum
}

// linearise fills the weighted Jacobian and residual vector at params.
func (p *problem) linearise(params []float64, jac *mat.Dense, resid *mat.VecDense) {
	for i, x := range p.x {
		p.fn.Gradient(x, params, p.grad)
		for j, g := range p.grad {
			jac.Set(i, j, g*p.w[i])
		}
		resid.SetVec(i, (p.y[i]-p.fn.Eval(x, params))*p.w[i])
	}
}

func (p *problem) normal(params []float64, jac *mat.Dense, resid *mat.VecDense) (*mat.SymDense, *mat.VecDense) {
	p.linearise(params, jac, resid)
	_, k := jac.Dims()
	jtj := mat.NewSymDense(k, nil)
	jtj.SymOuterK(1, jac.T())
	g := mat.NewVecDense(k, nil)
	g.MulVec(jac.T(), resid)
	return jtj, g
}

// CurveFit fits fn to (xdata, ydata) by Levenberg-Marquardt minimisation of
// the weighted chi-square. A fit that runs out of iterations, or stalls away
// from an exact fit, is returned together with ErrNotConverged.
func CurveFit(fn FitFunction, xdata, ydata []float64, opts FitOptions) (*Fit, error) {
	n, k := len(xdata), fn.NumParams()
	if err := validateData(xdata, ydata, opts.Sigma, k); err != nil {
		return nil, err
	}
	opts = opts.withDefaults(k)
	if len(opts.InitialParams) != k {
		return nil, fmt.Errorf("%w: %d initial parameters for %s, want %d", ErrInvalidData, len(opts.InitialParams), fn.Name(), k)
	}

	prob := &problem{fn: fn, x: xdata, y: ydata, w: make([]float64, n), grad: make([]float64, k)}
	for i := range prob.w {
		prob.w[i] = 1
		if opts.Sigma != nil {
			prob.w[i] = 1 / opts.Sigma[i]
		}
	}

	params := append([]float64(nil), opts.InitialParams...)
	chi2 := prob.chiSq(params)
	if math.IsNaN(chi2) || math.IsInf(chi2, 0) {
		return nil, fmt.Errorf("%w: chi-square is not finite at the initial parameters %v", ErrInvalidData, params)
	}

	jac := mat.NewDense(n, k, nil)
	resid := mat.NewVecDense(n, nil)
	trial := make([]float64, k)
	lambda := opts.Lambda0

	// residual floor below which a stalled search counts as an exact fit
	var floor float64
	for i, y := range ydata {
		floor += (y * prob.w[i]) * (y * prob.w[i])
	}
	floor *= 1e-16

	var (
		iter      int
		converged bool
		stalled   bool
	)
	for iter < opts.MaxIterations && !converged && !stalled {
		iter++
		jtj, g := prob.normal(params, jac, resid)
		if mat.Norm(g, math.Inf(1)) == 0 {
			converged = true
			break
		}

		for {
			delta, ok := dampedStep(jtj, g, lambda)
			if ok {
				floats.AddTo(trial, params, delta)
				trialChi := prob.chiSq(trial)
				if !math.IsNaN(trialChi) && trialChi <= chi2 {
					reduction := chi2 - trialChi
					smallStep := floats.Norm(delta, 2) <= opts.XTol*(floats.Norm(params, 2)+opts.XTol)
					copy(params, trial)
					converged = trialChi == 0 || reduction <= opts.FTol*chi2 || smallStep
					chi2 = trialChi
					lambda = math.Max(lambda/10, 1e-12)
					break
				}
			}
			lambda *= 10
			if lambda > maxLambda {
				// no descent direction left at machine precision
				stalled = true
				converged = chi2 <= floor
				break
			}
		}
	}

	fit := &Fit{
		Function:   fn,
		Params:     params,
		ChiSq:      chi2,
		DOF:        n - k,
		RSquared:   rSquared(prob, params),
		Iterations: iter,
		Converged:  converged,
	}
	var errs []error
	if !converged {
		reason := fmt.Sprintf("after %d iterations", iter)
		if stalled {
			reason = fmt.Sprintf("stalled after %d iterations", iter)
		}
		errs = append(errs, fmt.Errorf("%w: %s (chi2 = %g)", ErrNotConverged, reason, chi2))
	}
	if err := fit.setCovariance(prob, jac, resid, opts.AbsoluteSigma); err != nil {
		errs = append(errs, err)
	}
	return fit, errors.Join(errs...)
}

// dampedStep solves (J^T J + lambda diag(J^T J)) delta = J^T r.
func dampedStep(jtj *mat.SymDense, g *mat.VecDense, lambda float64) ([]float64, bool) {
	k := jtj.SymmetricDim()
	a := mat.NewSymDense(k, nil)
	a.CopySym(jtj)
	for i := 0; i < k; i++ {
		d := jtj.At(i, i)
		if d == 0 {
			d = 1
		}
		a.SetSym(i, i, jtj.At(i, i)+lambda*d)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, g); err != nil {
		return nil, false
	}
	return delta.RawVector().Data, true
}

func (f *Fit) setCovariance(prob *problem, jac *mat.Dense, resid *mat.VecDense, absolute bool) error {
	k := len(f.Params)
	jtj, _ := prob.normal(f.Params, jac, resid)

	f.Covariance = mat.NewSymDense(k, nil)
	f.ParamErrors = make([]float64, k)

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok || chol.Cond() > maxCond {
		fillSym(f.Covariance, math.Inf(1))
		floats.AddConst(math.Inf(1), f.ParamErrors)
		return fmt.Errorf("%w: parameters of %s are not independently determined by the data", ErrSingularMatrix, f.Function.Name())
	}
	if err := chol.InverseTo(f.Covariance); err != nil {
		fillSym(f.Covariance, math.Inf(1))
		floats.AddConst(math.Inf(1), f.ParamErrors)
		return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}

	if !absolute {
		if f.DOF > 0 {
			f.Covariance.ScaleSym(f.ChiSq/float64(f.DOF), f.Covariance)
		} else {
			fillSym(f.Covariance, math.Inf(1))
		}
	}
	for i := range f.ParamErrors {
		f.ParamErrors[i] = math.Sqrt(f.Covariance.At(i, i))
	}
	return nil
}

func fillSym(s *mat.SymDense, v float64) {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, v)
		}
	}
}

func rSquared(prob *problem, params []float64) float64 {
	mean := stat.Mean(prob.y, nil)
	var ssRes, ssTot float64
	for i, x := range prob.x {
		r := prob.y[i] - prob.fn.Eval(x, params)
		d := prob.y[i] - mean
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}

func validateData(x, y, sigma []float64, k int) error {
	switch {
	case len(x) == 0:
		return fmt.Errorf("%w: no data points", ErrInvalidData)
	case len(x) != len(y):
		return fmt.Errorf("%w: len(x) = %d, len(y) = %d", ErrInvalidData, len(x), len(y))
	case sigma != nil && len(sigma) != len(x):
		return fmt.Errorf("%w: len(sigma) = %d, want %d", ErrInvalidData, len(sigma), len(x))
	case len(x) < k:
		return fmt.Errorf("%w: %d points cannot determine %d parameters", ErrInvalidData, len(x), k)
	}
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidData, i)
		}
		if sigma != nil && !(sigma[i] > 0 && finite(sigma[i])) {
			return fmt.Errorf("%w: sigma[%d] = %g must be positive", ErrInvalidData, i, sigma[i])
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ScanInitialParams grid searches the parameter ranges (ordered as
// fn.ParamNames) for the starting point with the lowest chi-square.
func ScanInitialParams(ctx context.Context, fn FitFunction, xdata, ydata []float64, ranges [][]float64) ([]float64, error) {
	if err := validateData(xdata, ydata, nil, fn.NumParams()); err != nil {
		return nil, err
	}
	names := fn.ParamNames()
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return nil, err
	}

	prob := &problem{fn: fn, x: xdata, y: ydata, w: make([]float64, len(xdata))}
	floats.AddConst(1, prob.w)
	p := make([]float64, len(names))

	best, _, err := gs.Search(ctx, func(_ context.Context, params map[string]float64) (float64, error) {
		for i, n := range names {
			p[i] = params[n]
		}
		return prob.chiSq(p), nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = best[n]
	}
	return out, nil
}
