package viz

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = rune(0x2800)

// Canvas is a braille raster of Width×Height cells, i.e. (2·Width)×(4·Height)
// addressable dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at sub-cell coordinates (x, y), y growing downward.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
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

// Dot fills a square of side 2r+1 dots centred on (x, y).
func (c *Canvas) Dot(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// Frame is the world-coordinate window mapped onto a canvas.
type Frame struct {
	MinX, MaxX, MinY, MaxY float64
}

// FitFrame bounds xs and ys with a margin of pad times each range.
func FitFrame(xs, ys []float64, pad float64) Frame {
	if len(xs) == 0 || len(ys) == 0 {
		return Frame{-1, 1, -1, 1}
	}
	f := Frame{floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)}
	rx, ry := f.MaxX-f.MinX, f.MaxY-f.MinY
	if rx == 0 {
		f.MinX, f.MaxX, rx = f.MinX-0.5, f.MaxX+0.5, 1
	}
	if ry == 0 {
		f.MinY, f.MaxY, ry = f.MinY-0.5, f.MaxY+0.5, 1
	}
	f.MinX -= rx * pad
	f.MaxX += rx * pad
	f.MinY -= ry * pad
	f.MaxY += ry * pad
	return f
}

// Project maps a world point to dot coordinates.
func (c *Canvas) Project(f Frame, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - f.MinX) / (f.MaxX - f.MinX) * w
	py := h - (y-f.MinY)/(f.MaxY-f.MinY)*h
	return int(px + 0.5), int(py + 0.5)
}

// Polyline joins consecutive points with straight segments.
func (c *Canvas) Polyline(f Frame, xs, ys []float64) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return
	}
	px, py := c.Project(f, xs[0], ys[0])
	c.Set(px, py)
	for i := 1; i < n; i++ {
		nx, ny := c.Project(f, xs[i], ys[i])
		c.DrawLine(px, py, nx, ny)
		px, py = nx, ny
	}
}

// Axes draws the coordinate axes where they cross the frame.
func (c *Canvas) Axes(f Frame) {
	x0, y0 := c.Project(f, 0, 0)
	if f.MinX <= 0 && f.MaxX >= 0 {
		for y := 0; y < c.Height*4; y += 2 {
			c.Set(x0, y)
		}
	}
	if f.MinY <= 0 && f.MaxY >= 0 {
		for x := 0; x < c.Width*2; x += 2 {
			c.Set(x, y0)
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
