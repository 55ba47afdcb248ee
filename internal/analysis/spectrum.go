package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/plasmakit/internal/plasma"
)

// PowerSpectrum is the one-sided power |X_k|^2 / n for k = 0..n/2.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	coeffs := fft.FFTReal(data)
	ps := make([]float64, n/2+1)
	for i := range ps {
		a := cmplx.Abs(coeffs[i])
		ps[i] = a * a / float64(n)
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency (Hz) in a series
// sampled every dt, refined by a parabola through the peak bin.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	n := len(data)
	if n < 4 {
		return 0, fmt.Errorf("%w: need at least 4 samples, got %d", ErrInvalidData, n)
	}
	if !(dt > 0) {
		return 0, fmt.Errorf("%w: sample interval %g must be positive", ErrInvalidData, dt)
	}

	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-stat.Mean(data, nil), centred)

	ps := PowerSpectrum(centred)
	k := 1 + floats.MaxIdx(ps[1:])

	shift := 0.0
	if k > 1 && k < len(ps)-1 {
		a, b, c := ps[k-1], ps[k], ps[k+1]
		if den := a - 2*b + c; den != 0 {
			shift = 0.5 * (a - c) / den
		}
	}
	return (float64(k) + shift) / (float64(n) * dt), nil
}

// GyroFrequency is the non-relativistic cyclotron frequency |q| B / (2 pi m)
// in Hz.
func GyroFrequency(sp plasma.Species, bMag float64) float64 {
	return math.Abs(sp.Charge) * bMag / (2 * math.Pi * sp.Mass)
}
