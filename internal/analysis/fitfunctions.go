package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrNoRoot             = errors.New("analysis: function has no real root")
	ErrUnknownFitFunction = errors.New("analysis: unknown fit function")
	ErrUnknownParam       = errors.New("analysis: unknown parameter")
)

// FitFunction is an analytic model f(x; p) with derivatives in both x and
// the parameters. Implementations are stateless; fitted parameters live in
// [Fit].
type FitFunction interface {
	Name() string
	ParamNames() []string
	NumParams() int
	// String is the symbolic formula.
	String() string
	Latex() string
	// Format is the formula with the parameter values substituted.
	Format(p []float64) string

	Eval(x float64, p []float64) float64
	DerivX(x float64, p []float64) float64
	Gradient(x float64, p []float64, grad []float64)
}

// analyticRoot is implemented by functions with a closed form root and root
// error.
type analyticRoot interface {
	Root(p, perr []float64) (root, rootErr float64, err error)
}

type Linear struct{}

func (Linear) Name() string         { return "linear" }
func (Linear) ParamNames() []string { return []string{"m", "b"} }
func (Linear) NumParams() int       { return 2 }
func (Linear) String() string       { return "f(x) = m x + b" }
func (Linear) Latex() string        { return `m x + b` }

func (Linear) Format(p []float64) string {
	return fmt.Sprintf("f(x) = %g x %s", p[0], signed(p[1]))
}

func (Linear) Eval(x float64, p []float64) float64   { return p[0]*x + p[1] }
func (Linear) DerivX(_ float64, p []float64) float64 { return p[0] }

func (Linear) Gradient(x float64, _ []float64, grad []float64) {
	grad[0] = x
	grad[1] = 1
}

func (Linear) Root(p, perr []float64) (float64, float64, error) {
	m, b := p[0], p[1]
	if m == 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: slope is zero", ErrNoRoot)
	}
	dm, db := perr[0], perr[1]
	root := -b / m
	rootErr := math.Hypot(db/m, b*dm/(m*m))
	return root, rootErr, nil
}

type Exponential struct{}

func (Exponential) Name() string         { return "exponential" }
func (Exponential) ParamNames() []string { return []string{"a", "b"} }
func (Exponential) NumParams() int       { return 2 }
func (Exponential) String() string       { return "f(x) = a exp(b x)" }
func (Exponential) Latex() string        { return `a \, \exp(b x)` }

func (Exponential) Format(p []float64) string {
	return fmt.Sprintf("f(x) = %g exp(%g x)", p[0], p[1])
}

func (Exponential) Eval(x float64, p []float64) float64 { return p[0] * math.Exp(p[1]*x) }

func (Exponential) DerivX(x float64, p []float64) float64 {
	return p[0] * p[1] * math.Exp(p[1]*x)
}

func (Exponential) Gradient(x float64, p []float64, grad []float64) {
	ex := math.Exp(p[1] * x)
	grad[0] = ex
	grad[1] = p[0] * x * ex
}

func (Exponential) Root([]float64, []float64) (float64, float64, error) {
	return math.NaN(), math.NaN(), fmt.Errorf("%w: a exp(b x) never crosses zero", ErrNoRoot)
}

type ExponentialPlusLinear struct{}

func (ExponentialPlusLinear) Name() string         { return "exponential_plus_linear" }
func (ExponentialPlusLinear) ParamNames() []string { return []string{"a", "b", "m", "n"} }
func (ExponentialPlusLinear) NumParams() int       { return 4 }
func (ExponentialPlusLinear) String() string       { return "f(x) = a exp(b x) + m x + n" }
func (ExponentialPlusLinear) Latex() string        { return `a \, \exp(b x) + m x + n` }

func (ExponentialPlusLinear) Format(p []float64) string {
	return fmt.Sprintf("f(x) = %g exp(%g x) %s x %s", p[0], p[1], signed(p[2]), signed(p[3]))
}

func (ExponentialPlusLinear) Eval(x float64, p []float64) float64 {
	return p[0]*math.Exp(p[1]*x) + p[2]*x + p[3]
}

func (ExponentialPlusLinear) DerivX(x float64, p []float64) float64 {
	return p[0]*p[1]*math.Exp(p[1]*x) + p[2]
}

func (ExponentialPlusLinear) Gradient(x float64, p []float64, grad []float64) {
	ex := math.Exp(p[1] * x)
	grad[0] = ex
	grad[1] = p[0] * x * ex
	grad[2] = x
	grad[3] = 1
}

type ExponentialPlusOffset struct{}

func (ExponentialPlusOffset) Name() string         { return "exponential_plus_offset" }
func (ExponentialPlusOffset) ParamNames() []string { return []string{"a", "b", "c"} }
func (ExponentialPlusOffset) NumParams() int       { return 3 }
func (ExponentialPlusOffset) String() string       { return "f(x) = a exp(b x) + c" }
func (ExponentialPlusOffset) Latex() string        { return `a \, \exp(b x) + c` }

func (ExponentialPlusOffset) Format(p []float64) string {
	return fmt.Sprintf("f(x) = %g exp(%g x) %s", p[0], p[1], signed(p[2]))
}

func (ExponentialPlusOffset) Eval(x float64, p []float64) float64 {
	return p[0]*math.Exp(p[1]*x) + p[2]
}

func (ExponentialPlusOffset) DerivX(x float64, p []float64) float64 {
	return p[0] * p[1] * math.Exp(p[1]*x)
}

func (ExponentialPlusOffset) Gradient(x float64, p []float64, grad []float64) {
	ex := math.Exp(p[1] * x)
	grad[0] = ex
	grad[1] = p[0] * x * ex
	grad[2] = 1
}

// Root solves a exp(b x) + c = 0 for x = ln(-c/a) / b.
func (ExponentialPlusOffset) Root(p, perr []float64) (float64, float64, error) {
	a, b, c := p[0], p[1], p[2]
	ratio := -c / a
	if b == 0 || !(ratio > 0) {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: -c/a = %g, b = %g", ErrNoRoot, ratio, b)
	}
	root := math.Log(ratio) / b

	da, db, dc := perr[0], perr[1], perr[2]
	rootErr := Quadrature(da/(a*b), db*root/b, dc/(b*c))
	return root, rootErr, nil
}

var fitFunctions = map[string]FitFunction{
	"linear":                  Linear{},
	"exponential":             Exponential{},
	"exponential_plus_linear": ExponentialPlusLinear{},
	"exponential_plus_offset": ExponentialPlusOffset{},
}

func LookupFitFunction(name string) (FitFunction, error) {
	fn, ok := fitFunctions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownFitFunction, name, strings.Join(FitFunctionNames(), ", "))
	}
	return fn, nil
}

func FitFunctionNames() []string {
	names := make([]string, 0, len(fitFunctions))
	for name := range fitFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func signed(v float64) string {
	if math.Signbit(v) {
		return fmt.Sprintf("- %g", -v)
	}
	return fmt.Sprintf("+ %g", v)
}
