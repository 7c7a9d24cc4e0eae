package viz

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/quartic/internal/dynamo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// ErrEmptyResult indicates a trajectory without samples.
var ErrEmptyResult = errors.New("viz: empty trajectory")

// BatchDeriver evaluates the vector field at many phase points at once.
type BatchDeriver interface {
	DeriveBatch(xs, ps []float64, t float64) (dxs, dps []float64)
}

const (
	figureWidth  = 8 * vg.Inch
	figureHeight = 6 * vg.Inch
	figureDPI    = 150
	fieldGrid    = 21
)

var (
	positionColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	momentumColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	fieldColor    = color.Gray{Y: 160}
)

func stylePlot(p *plot.Plot) {
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)
	p.Add(plotter.NewGrid())
}

func seriesPlot(times, values []float64, ylabel string, c color.Color) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("%s series: %w", ylabel, err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c

	p := plot.New()
	stylePlot(p)
	p.Y.Label.Text = ylabel
	p.Add(line)
	return p, nil
}

// SaveFigure renders Position and Momentum against Time as two vertically
// stacked plots sharing the time axis. The figure is written as SVG when path
// ends in .svg and as PNG otherwise.
func SaveFigure(path string, res *dynamo.Result) error {
	if res == nil || res.Len() == 0 {
		return ErrEmptyResult
	}

	colors := []color.Color{positionColor, momentumColor}
	plots := make([][]*plot.Plot, len(Panels))
	for i, panel := range Panels {
		p, err := seriesPlot(res.Times, res.Component(panel.Component), panel.Label, colors[i%len(colors)])
		if err != nil {
			return err
		}
		p.X.Min, p.X.Max = res.Times[0], res.Times[res.Len()-1]
		plots[i] = []*plot.Plot{p}
	}
	plots[len(plots)-1][0].X.Label.Text = "Time"

	c, out := newCanvas(path, figureWidth, figureHeight)
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    vg.Points(8),
		PadBottom: vg.Points(8),
		PadLeft:   vg.Points(8),
		PadRight:  vg.Points(16),
		PadY:      vg.Points(12),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	return writeFigure(path, out)
}

// flowField samples a phase-space vector field on a regular grid. Vectors are
// normalized so the plot shows direction only.
type flowField struct {
	xs, ps  []float64
	vectors []plotter.XY
}

func newFlowField(sys BatchDeriver, f Frame, n int) *flowField {
	ff := &flowField{
		xs: make([]float64, n),
		ps: make([]float64, n),
	}
	for i := range n {
		ff.xs[i] = f.MinX + (f.MaxX-f.MinX)*float64(i)/float64(n-1)
		ff.ps[i] = f.MinY + (f.MaxY-f.MinY)*float64(i)/float64(n-1)
	}

	gx := make([]float64, 0, n*n)
	gp := make([]float64, 0, n*n)
	for r := range n {
		for c := range n {
			gx = append(gx, ff.xs[c])
			gp = append(gp, ff.ps[r])
		}
	}

	dxs, dps := sys.DeriveBatch(gx, gp, 0)
	ff.vectors = make([]plotter.XY, len(dxs))
	for i := range dxs {
		m := math.Hypot(dxs[i], dps[i])
		if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		ff.vectors[i] = plotter.XY{X: dxs[i] / m, Y: dps[i] / m}
	}
	return ff
}

func (f *flowField) Dims() (c, r int) { return len(f.xs), len(f.ps) }

func (f *flowField) Vector(c, r int) plotter.XY { return f.vectors[r*len(f.xs)+c] }

func (f *flowField) X(c int) float64 { return f.xs[c] }

func (f *flowField) Y(r int) float64 { return f.ps[r] }

// SavePhasePortrait draws the (x, p) orbit of res over the direction field
// of sys. The output format follows the extension of path as in SaveFigure.
func SavePhasePortrait(path string, res *dynamo.Result, sys BatchDeriver) error {
	if res == nil || res.Len() == 0 {
		return ErrEmptyResult
	}

	xs, ps := res.Component(0), res.Component(1)
	frame := FitFrame(xs, ps, 0.2)

	p := plot.New()
	stylePlot(p)
	p.X.Label.Text = "Position"
	p.Y.Label.Text = "Momentum"

	field := plotter.NewField(newFlowField(sys, frame, fieldGrid))
	field.LineStyle.Color = fieldColor
	field.LineStyle.Width = vg.Points(0.8)
	p.Add(field)

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ps[i]
	}
	orbit, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("orbit: %w", err)
	}
	orbit.LineStyle.Width = vg.Points(1.5)
	orbit.LineStyle.Color = positionColor
	p.Add(orbit)

	start, err := plotter.NewScatter(pts[:1])
	if err != nil {
		return fmt.Errorf("orbit start: %w", err)
	}
	start.GlyphStyle.Shape = draw.CircleGlyph{}
	start.GlyphStyle.Color = momentumColor
	start.GlyphStyle.Radius = vg.Points(3)
	p.Add(start)

	c, out := newCanvas(path, figureHeight, figureHeight)
	p.Draw(draw.New(c))
	return writeFigure(path, out)
}

func newCanvas(path string, w, h vg.Length) (vg.CanvasSizer, io.WriterTo) {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		c := vgsvg.New(w, h)
		return c, c
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(figureDPI))
	return c, vgimg.PngCanvas{Canvas: c}
}

func writeFigure(path string, out io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create figure: %w", err)
	}

	bw := bufio.NewWriter(f)
	if _, err := out.WriteTo(bw); err != nil {
		f.Close()
		return fmt.Errorf("cannot write figure: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("cannot write figure: %w", err)
	}
	return f.Close()
}
