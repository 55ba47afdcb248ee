package export

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should give empty output")
	}
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("got %d circles, want 2", n)
	}
	if !strings.Contains(svg, `width="8" height="8"`) {
		t.Errorf("unexpected size in %q", svg[:120])
	}
}

func TestOrbitsSVG(t *testing.T) {
	projs := []*analysis.OrbitProjection{
		{XAxis: 0, YAxis: 1, Points: []analysis.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
		{XAxis: 0, YAxis: 1, Points: []analysis.Point{{X: 0, Y: 1}, {X: math.NaN(), Y: 0}, {X: 0.5, Y: 0.5}}},
	}
	var buf bytes.Buffer
	if err := OrbitsSVG(&buf, projs, 200, 100); err != nil {
		t.Fatalf("OrbitsSVG: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, "<path"); n != 2 {
		t.Errorf("got %d paths, want 2", n)
	}
	// the NaN splits the second path into two moves
	if n := strings.Count(out, "M"); n < 3 {
		t.Errorf("got %d move commands, want at least 3", n)
	}
	if !strings.Contains(out, "x-y [m]") {
		t.Error("missing axis label")
	}
}

func TestOrbitsSVGEmpty(t *testing.T) {
	projs := []*analysis.OrbitProjection{{Points: []analysis.Point{{X: math.Inf(1), Y: 0}}}}
	err := OrbitsSVG(&bytes.Buffer{}, projs, 10, 10)
	if !errors.Is(err, ErrNoPoints) {
		t.Errorf("err = %v, want ErrNoPoints", err)
	}
}
