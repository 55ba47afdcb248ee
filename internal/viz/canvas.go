package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// offset from U+2800
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille pixel buffer of Width x Height cells, which is
// 2*Width x 4*Height dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots is the canvas size in sub-cell dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, bit rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, pixelMap[y%4][x%2], true
}

// Set lights the dot at (x, y), with y pointing down.
func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&bit != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Bounds is a world-space rectangle mapped onto the canvas.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// FitBounds returns the bounds of the points, padded by pad of each span.
// Zero spans are widened so that every point maps inside the canvas.
func FitBounds(xs, ys []float64, pad float64) Bounds {
	b := Bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := range xs {
		b.MinX, b.MaxX = math.Min(b.MinX, xs[i]), math.Max(b.MaxX, xs[i])
		b.MinY, b.MaxY = math.Min(b.MinY, ys[i]), math.Max(b.MaxY, ys[i])
	}
	if len(xs) == 0 {
		return Bounds{-1, 1, -1, 1}
	}
	widen := func(lo, hi float64) (float64, float64) {
		span := hi - lo
		if span == 0 {
			span = math.Max(math.Abs(lo), 1)
		}
		return lo - pad*span, hi + pad*span
	}
	b.MinX, b.MaxX = widen(b.MinX, b.MaxX)
	b.MinY, b.MaxY = widen(b.MinY, b.MaxY)
	return b
}

// Equal scales the smaller span up so both axes share one scale on a
// canvas of w x h dots.
func (b Bounds) Equal(w, h int) Bounds {
	sx := (b.MaxX - b.MinX) / float64(w)
	sy := (b.MaxY - b.MinY) / float64(h)
	s := math.Max(sx, sy)
	cx, cy := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
	hw, hh := s*float64(w)/2, s*float64(h)/2
	return Bounds{cx - hw, cx + hw, cy - hh, cy + hh}
}

// ToDots maps a world point to dot coordinates.
func (c *Canvas) ToDots(b Bounds, x, y float64) (int, int) {
	w, h := c.Dots()
	px := (x - b.MinX) / (b.MaxX - b.MinX) * float64(w-1)
	py := (b.MaxY - y) / (b.MaxY - b.MinY) * float64(h-1)
	return int(math.Round(px)), int(math.Round(py))
}

// Polyline plots consecutive points joined by lines.
func (c *Canvas) Polyline(b Bounds, xs, ys []float64) {
	for i := range xs {
		x, y := c.ToDots(b, xs[i], ys[i])
		if i == 0 {
			c.Set(x, y)
			continue
		}
		px, py := c.ToDots(b, xs[i-1], ys[i-1])
		c.DrawLine(px, py, x, y)
	}
}

// Marker draws a 3x3 dot block centred on a world point.
func (c *Canvas) Marker(b Bounds, x, y float64) {
	cx, cy := c.ToDots(b, x, y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(cx+dx, cy+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
