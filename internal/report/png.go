package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// Plot builds a pH-versus-hue plot of series. The active curve's ring
// interpolation is drawn as a dashed line.
func Plot(series []Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Calibration curves"
	p.X.Label.Text = "Hue (degrees)"
	p.Y.Label.Text = "pH"
	p.X.Min, p.X.Max = 0, 360
	p.Y.Min, p.Y.Max = 0, 14
	p.Add(plotter.NewGrid())

	for i, s := range series {
		if len(s.Curve) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Curve))
		for j, pt := range s.Curve {
			pts[j] = plotter.XY{X: pt.Hue, Y: pt.PH}
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", s.Name, err)
		}
		c := seriesColor(i)
		line.Color = c
		line.Width = vg.Points(1)
		points.Color = c
		if s.Active {
			line.Width = vg.Points(2)
		}
		p.Add(line, points)
		p.Legend.Add(s.Name, line, points)
	}

	if active, ok := activeSeries(series); ok {
		hues, phs := interpolated(active.Curve)
		pts := make(plotter.XYs, len(hues))
		for i := range hues {
			pts[i] = plotter.XY{X: hues[i], Y: phs[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot interpolation: %w", err)
		}
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
		p.Legend.Add(active.Name+" (interpolated)", line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders series as a PNG image to w.
func WritePNG(w io.Writer, series []Series) error {
	p, err := Plot(series)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG renders series to a PNG file.
func SavePNG(path string, series []Series) error {
	p, err := Plot(series)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
