package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/velocitek/vtk-protocol/internal/vtk"
)

// PNG canvas size.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 8 * vg.Inch
)

var (
	trackColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	startColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	endColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// TrackPlot builds the plan view of the track: longitude on X, latitude
// on Y, with the first and last fixes marked. Points with non-finite
// coordinates are left out.
func TrackPlot(points []vtk.Point, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude (deg)"
	p.Y.Label.Text = "Latitude (deg)"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		if !isFinite(pt.Longitude) || !isFinite(pt.Latitude) {
			continue
		}
		xys = append(xys, plotter.XY{X: pt.Longitude, Y: pt.Latitude})
	}
	if len(xys) == 0 {
		return p, nil
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build track line: %w", err)
	}
	line.Color = trackColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("track", line)

	start, err := marker(xys[:1], startColor, draw.CircleGlyph{})
	if err != nil {
		return nil, err
	}
	end, err := marker(xys[len(xys)-1:], endColor, draw.SquareGlyph{})
	if err != nil {
		return nil, err
	}
	p.Add(start, end)
	p.Legend.Add("start", start)
	p.Legend.Add("end", end)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func marker(xys plotter.XYs, c color.Color, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build marker: %w", err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Radius = vg.Points(4)
	return s, nil
}

// WritePNG renders TrackPlot as a PNG image onto w.
func WritePNG(w io.Writer, points []vtk.Point, title string) error {
	p, err := TrackPlot(points, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render track plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write track plot: %w", err)
	}
	return nil
}
