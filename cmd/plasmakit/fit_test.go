package main

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/plasmakit/internal/analysis"
)

func TestParseScanRange(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"0:1:3", []float64{0, 0.5, 1}, false},
		{"2:9:1", []float64{2}, false},
		{"1, 2,4", []float64{1, 2, 4}, false},
		{"-3", []float64{-3}, false},
		{"0:1:0", nil, true},
		{"a:1:3", nil, true},
		{"1,,2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseScanRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseScanRange(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseScanRangesCount(t *testing.T) {
	if _, err := parseScanRanges([]string{"0:1:2"}, []string{"a", "b"}); err == nil {
		t.Error("expected an error for a missing range")
	}
}

func setFitFlags(t *testing.T, p0 []float64, scan []string, sigma float64) {
	t.Helper()
	fitP0, fitScan, fitSigma, absSigma, fitIters = p0, scan, sigma, false, 0
	t.Cleanup(func() { fitP0, fitScan, fitSigma = nil, nil, 0 })
}

func decay(n int) (x, y []float64) {
	x = make([]float64, n)
	y = make([]float64, n)
	for i := range x {
		x[i] = 0.25 * float64(i)
		y[i] = 5 * math.Exp(-0.7*x[i])
	}
	return x, y
}

func TestFitOptionsScanRecoversBadStart(t *testing.T) {
	x, y := decay(21)
	setFitFlags(t, nil, []string{"1:9:9", "-2:2:9"}, 0.01)

	opts, err := fitOptions(context.Background(), analysis.Exponential{}, x, y)
	if err != nil {
		t.Fatalf("fitOptions: %v", err)
	}
	if len(opts.Sigma) != len(y) || opts.Sigma[3] != 0.01 {
		t.Errorf("sigma = %v", opts.Sigma)
	}
	if diff := cmp.Diff([]float64{4, -0.5}, opts.InitialParams); diff != "" {
		t.Errorf("scan start mismatch (-want +got):\n%s", diff)
	}

	fit, err := analysis.CurveFit(analysis.Exponential{}, x, y, opts)
	if err != nil {
		t.Fatalf("CurveFit: %v", err)
	}
	if !fit.Converged || math.Abs(fit.Params[1]+0.7) > 1e-6 {
		t.Errorf("fit = %v converged=%v", fit.Params, fit.Converged)
	}
}

func TestFitOptionsRejects(t *testing.T) {
	x, y := decay(5)
	tests := []struct {
		name  string
		p0    []float64
		scan  []string
		sigma float64
	}{
		{"negative sigma", nil, nil, -1},
		{"short p0", []float64{1}, nil, 0},
		{"bad scan", nil, []string{"1:2:x", "0"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFitFlags(t, tt.p0, tt.scan, tt.sigma)
			if _, err := fitOptions(context.Background(), analysis.Exponential{}, x, y); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
