package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/plasmakit/internal/plasma"
)

type Point struct{ X, Y float64 }

// OrbitProjection is one particle's trajectory projected on two axes.
type OrbitProjection struct {
	Particle     int
	XAxis, YAxis int
	Points       []Point
}

// ProjectOrbit projects particle's recorded positions onto xAxis and yAxis
// (0, 1, 2 for x, y, z).
func ProjectOrbit(sol *plasma.Solution, particle, xAxis, yAxis int) (*OrbitProjection, error) {
	if xAxis < 0 || xAxis > 2 || yAxis < 0 || yAxis > 2 {
		return nil, fmt.Errorf("%w: axes %d, %d", plasma.ErrDimensionMismatch, xAxis, yAxis)
	}
	xs, err := sol.Component(plasma.KeyPosition, particle, xAxis)
	if err != nil {
		return nil, err
	}
	ys, err := sol.Component(plasma.KeyPosition, particle, yAxis)
	if err != nil {
		return nil, err
	}

	proj := &OrbitProjection{
		Particle: particle,
		XAxis:    xAxis,
		YAxis:    yAxis,
		Points:   make([]Point, len(xs)),
	}
	for i := range xs {
		proj.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return proj, nil
}

// Bounds returns the extent of the finite points of the projection, or NaN
// when there are none.
func (p *OrbitProjection) Bounds() (minX, maxX, minY, maxY float64) {
	pts := p.finitePoints()
	if len(pts) == 0 {
		nan := math.NaN()
		return nan, nan, nan, nan
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	return floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)
}

func (p *OrbitProjection) finitePoints() []Point {
	out := make([]Point, 0, len(p.Points))
	for _, pt := range p.Points {
		if finite(pt.X) && finite(pt.Y) {
			out = append(out, pt)
		}
	}
	return out
}

// ProjectionToASCII renders the projection as a character plot. Points that
// are not finite are skipped.
func ProjectionToASCII(proj *OrbitProjection, width, height int) string {
	if proj == nil || width < 2 || height < 2 {
		return ""
	}
	pts := proj.finitePoints()
	if len(pts) == 0 {
		return ""
	}

	minX, maxX, minY, maxY := proj.Bounds()

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range pts {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// start marker
	first := pts[0]
	col := int((first.X - minX) / rangeX * float64(width-1))
	row := height - 1 - int((first.Y-minY)/rangeY*float64(height-1))
	canvas[row][col] = 'o'

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Crossings records the projected position each time the particle crosses
// level along axis in the positive direction. In a mirror field with axis =
// 2 this samples the orbit once per bounce.
func Crossings(sol *plasma.Solution, particle, axis int, level float64, xAxis, yAxis int) ([]Point, error) {
	proj, err := ProjectOrbit(sol, particle, xAxis, yAxis)
	if err != nil {
		return nil, err
	}
	along, err := sol.Component(plasma.KeyPosition, particle, axis)
	if err != nil {
		return nil, err
	}

	var out []Point
	for i := 1; i < len(along); i++ {
		prev, curr := along[i-1], along[i]
		if prev < level && curr >= level {
			frac := (level - prev) / (curr - prev)
			a, b := proj.Points[i-1], proj.Points[i]
			out = append(out, Point{
				X: a.X + frac*(b.X-a.X),
				Y: a.Y + frac*(b.Y-a.Y),
			})
		}
	}
	return out, nil
}
