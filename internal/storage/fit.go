package storage

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/plasmakit/internal/analysis"
)

// FitReport is the stored form of a curve fit against one run quantity.
type FitReport struct {
	Function    string    `json:"function"`
	Formula     string    `json:"formula"`
	Quantity    string    `json:"quantity"`
	Particle    int       `json:"particle"`
	ParamNames  []string  `json:"param_names"`
	Params      []float64 `json:"params"`
	ParamErrors []Float   `json:"param_errors"`
	Covariance  [][]Float `json:"covariance"`
	ChiSq       float64   `json:"chi_sq"`
	DOF         int       `json:"dof"`
	RSquared    Float     `json:"r_squared"`
	Converged   bool      `json:"converged"`
	Iterations  int       `json:"iterations"`
	Created     time.Time `json:"created"`
}

func NewFitReport(fit *analysis.Fit, quantity string, particle int) FitReport {
	k := len(fit.Params)
	r := FitReport{
		Function:    fit.Function.Name(),
		Formula:     fit.String(),
		Quantity:    quantity,
		Particle:    particle,
		ParamNames:  fit.Function.ParamNames(),
		Params:      append([]float64(nil), fit.Params...),
		ParamErrors: make([]Float, k),
		Covariance:  make([][]Float, k),
		ChiSq:       fit.ChiSq,
		DOF:         fit.DOF,
		RSquared:    Float(fit.RSquared),
		Converged:   fit.Converged,
		Iterations:  fit.Iterations,
		Created:     time.Now().UTC(),
	}
	for i := 0; i < k; i++ {
		r.ParamErrors[i] = Float(fit.ParamErrors[i])
		r.Covariance[i] = make([]Float, k)
		for j := 0; j < k; j++ {
			r.Covariance[i][j] = Float(fit.Covariance.At(i, j))
		}
	}
	return r
}

// Fit rebuilds an evaluable fit from the report.
func (r FitReport) Fit() (*analysis.Fit, error) {
	fn, err := analysis.LookupFitFunction(r.Function)
	if err != nil {
		return nil, err
	}
	k := fn.NumParams()
	if len(r.Params) != k || len(r.ParamErrors) != k || len(r.Covariance) != k {
		return nil, fmt.Errorf("%w: fit report for %s has %d parameters, want %d", ErrCorrupt, r.Function, len(r.Params), k)
	}

	cov := mat.NewSymDense(k, nil)
	errs := make([]float64, k)
	for i := 0; i < k; i++ {
		errs[i] = float64(r.ParamErrors[i])
		for j := i; j < k; j++ {
			cov.SetSym(i, j, float64(r.Covariance[i][j]))
		}
	}
	return &analysis.Fit{
		Function:    fn,
		Params:      append([]float64(nil), r.Params...),
		ParamErrors: errs,
		Covariance:  cov,
		ChiSq:       r.ChiSq,
		DOF:         r.DOF,
		RSquared:    float64(r.RSquared),
		Iterations:  r.Iterations,
		Converged:   r.Converged,
	}, nil
}

func (s *Store) SaveFit(runID string, report FitReport) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.Dir(runID), fitFile), report)
}

func (s *Store) LoadFit(runID string) (*FitReport, error) {
	var r FitReport
	if err := readJSON(filepath.Join(s.Dir(runID), fitFile), &r); err != nil {
		return nil, fmt.Errorf("load fit %s: %w", runID, err)
	}
	return &r, nil
}

// Float is a float64 whose JSON form carries infinities and NaN as strings.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	}
	return []byte(formatFloat(v)), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"+Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	case `"NaN"`:
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: float %s", ErrCorrupt, data)
	}
	*f = Float(v)
	return nil
}
