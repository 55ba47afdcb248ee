package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/viz"
)

var ErrNoPoints = errors.New("export: nothing to draw")

// Stroke colours cycled over particles.
var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

var axisNames = [3]string{"x", "y", "z"}

const background = "#0a0a0a"

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// OrbitsSVG writes the projections as polylines sharing one equal-aspect
// frame. Points that are not finite break the path.
func OrbitsSVG(w io.Writer, projs []*analysis.OrbitProjection, width, height int) error {
	var xs, ys []float64
	for _, p := range projs {
		for _, pt := range p.Points {
			if finite(pt.X) && finite(pt.Y) {
				xs = append(xs, pt.X)
				ys = append(ys, pt.Y)
			}
		}
	}
	if len(xs) == 0 {
		return ErrNoPoints
	}
	b := viz.FitBounds(xs, ys, 0.05).Equal(width, height)
	sx := float64(width) / (b.MaxX - b.MinX)
	sy := float64(height) / (b.MaxY - b.MinY)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	for i, p := range projs {
		var d strings.Builder
		move := true
		for _, pt := range p.Points {
			if !finite(pt.X) || !finite(pt.Y) {
				move = true
				continue
			}
			op := " L"
			if move {
				op, move = " M", false
			}
			fmt.Fprintf(&d, "%s%.2f,%.2f", op, (pt.X-b.MinX)*sx, (b.MaxY-pt.Y)*sy)
		}
		if d.Len() == 0 {
			continue
		}
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"%s\"/>\n",
			palette[i%len(palette)], strings.TrimSpace(d.String()))
	}

	p := projs[0]
	fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=\"#888888\" font-family=\"monospace\" font-size=\"12\">%s-%s [m]</text>\n",
		height-8, axisNames[p.XAxis], axisNames[p.YAxis])
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
