package analysis

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoBracket = errors.New("analysis: root is not bracketed")

const (
	MethodAnalytic = "analytic"
	MethodNewton   = "newton"
	MethodBrent    = "brent"
)

type RootOptions struct {
	// Tol is the absolute tolerance on the root, scaled by 1+|x|.
	Tol     float64
	MaxIter int
	// MaxExpand bounds the bracket growth steps of the fallback search.
	MaxExpand int
}

func (o RootOptions) withDefaults() RootOptions {
	if o.Tol <= 0 {
		o.Tol = 1e-12
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 100
	}
	if o.MaxExpand <= 0 {
		o.MaxExpand = 60
	}
	return o
}

type RootResult struct {
	Root       float64
	Iterations int
	Method     string
}

// FindRoot runs Newton's method from x0, rejecting steps that do not reduce
// |f|. If Newton stalls, a bracket is grown geometrically around x0 and the
// root is polished with Brent's method.
func FindRoot(f, df func(float64) float64, x0 float64, opts RootOptions) (RootResult, error) {
	opts = opts.withDefaults()

	if res, ok := newton(f, df, x0, opts); ok {
		return res, nil
	}

	a, b, err := expandBracket(f, x0, opts.MaxExpand)
	if err != nil {
		return RootResult{Root: math.NaN()}, err
	}
	return Brent(f, a, b, opts.Tol, opts.MaxIter)
}

func newton(f, df func(float64) float64, x float64, opts RootOptions) (RootResult, bool) {
	if df == nil {
		return RootResult{}, false
	}
	fx := f(x)
	for i := 1; i <= opts.MaxIter; i++ {
		if fx == 0 {
			return RootResult{Root: x, Iterations: i - 1, Method: MethodNewton}, true
		}
		d := df(x)
		if d == 0 || !finite(d) || !finite(fx) {
			return RootResult{}, false
		}

		step := fx / d
		next := x - step
		fnext := f(next)
		// halve the step until |f| decreases
		for h := 0; h < 30 && !(math.Abs(fnext) < math.Abs(fx)); h++ {
			step /= 2
			next = x - step
			fnext = f(next)
		}
		if !(math.Abs(fnext) < math.Abs(fx)) && fnext != 0 {
			return RootResult{}, false
		}

		x, fx = next, fnext
		if math.Abs(step) <= opts.Tol*(1+math.Abs(x)) {
			return RootResult{Root: x, Iterations: i, Method: MethodNewton}, true
		}
	}
	return RootResult{}, false
}

func expandBracket(f func(float64) float64, x0 float64, maxExpand int) (float64, float64, error) {
	width := math.Max(math.Abs(x0)*0.1, 1)
	fx0 := f(x0)
	if fx0 == 0 {
		return x0, x0, nil
	}
	for i := 0; i < maxExpand; i++ {
		lo, hi := x0-width, x0+width
		flo, fhi := f(lo), f(hi)
		if !sameSignOrNaN(fx0, fhi) {
			return x0, hi, nil
		}
		if !sameSignOrNaN(flo, fx0) {
			return lo, x0, nil
		}
		width *= 1.6
	}
	return 0, 0, fmt.Errorf("%w: no sign change within %d expansions of %g", ErrNoBracket, maxExpand, x0)
}

// sameSignOrNaN treats NaN as no usable sign change.
func sameSignOrNaN(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return math.Signbit(a) == math.Signbit(b) && a != 0 && b != 0
}

// Brent finds a root of f in [a, b] by inverse quadratic interpolation with
// bisection fallback. f(a) and f(b) must differ in sign.
func Brent(f func(float64) float64, a, b, tol float64, maxIter int) (RootResult, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return RootResult{Root: a, Method: MethodBrent}, nil
	}
	if fb == 0 {
		return RootResult{Root: b, Method: MethodBrent}, nil
	}
	if sameSignOrNaN(fa, fb) {
		return RootResult{Root: math.NaN()}, fmt.Errorf("%w: f(%g) = %g, f(%g) = %g", ErrNoBracket, a, fa, b, fb)
	}
	if tol <= 0 {
		tol = 1e-12
	}
	if maxIter <= 0 {
		maxIter = 100
	}

	c, fc := a, fa
	d := b - a
	e := d
	for i := 1; i <= maxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*epsilon*math.Abs(b) + 0.5*tol
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol1 || fb == 0 {
			return RootResult{Root: b, Iterations: i, Method: MethodBrent}, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			var p, q float64
			s := fb / fa
			if a == c {
				// secant
				p = 2 * m * s
				q = 1 - s
			} else {
				// inverse quadratic
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = d
			}
		} else {
			d = m
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, m)
		}
		fb = f(b)
	}
	return RootResult{Root: b, Iterations: maxIter, Method: MethodBrent}, fmt.Errorf("%w: brent exhausted %d iterations", ErrNotConverged, maxIter)
}

const epsilon = 2.220446049250313e-16

// Root finds where the fitted function crosses zero, returning the root and
// its uncertainty. Functions with a closed form use it; the rest are solved
// numerically from x0 and their error follows from the implicit function
// theorem.
func (f *Fit) Root(x0 float64) (root, rootErr float64, err error) {
	if ar, ok := f.Function.(analyticRoot); ok {
		return ar.Root(f.Params, f.ParamErrors)
	}

	res, err := FindRoot(
		func(x float64) float64 { return f.Eval(x) },
		func(x float64) float64 { return f.Function.DerivX(x, f.Params) },
		x0, RootOptions{},
	)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}

	grad := make([]float64, len(f.Params))
	f.Function.Gradient(res.Root, f.Params, grad)
	slope := math.Abs(f.Function.DerivX(res.Root, f.Params))
	if slope == 0 {
		return res.Root, math.Inf(1), nil
	}
	return res.Root, PropagateIndependent(grad, f.ParamErrors) / slope, nil
}
