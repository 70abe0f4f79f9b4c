// Package report draws calibration curves as PNG plots and HTML charts.
package report

import (
	"fmt"
	"image/color"

	"colorimetric-ph/internal/calibration"
)

// Series is one named calibration curve to draw.
type Series struct {
	Name   string
	Curve  calibration.Curve
	Active bool
}

// CurveSeries collects every curve known to svc, marking the active one.
func CurveSeries(svc *calibration.Service) []Series {
	mode := svc.Mode()
	sources := svc.Sources()
	out := make([]Series, 0, len(sources))
	for _, src := range sources {
		out = append(out, Series{
			Name:   string(src),
			Curve:  svc.NormalizedCurve(src).SortedByHue(),
			Active: src == mode,
		})
	}
	return out
}

// interpolated samples the ring mapping of curve at every whole degree.
func interpolated(curve calibration.Curve) (hues, phs []float64) {
	hues = make([]float64, 0, 361)
	phs = make([]float64, 0, 361)
	for h := 0; h <= 360; h++ {
		hues = append(hues, float64(h))
		phs = append(phs, calibration.ClampPH(calibration.MapHueToPH(float64(h), curve)))
	}
	return hues, phs
}

func activeSeries(series []Series) (Series, bool) {
	for _, s := range series {
		if s.Active && s.Curve.Usable() {
			return s, true
		}
	}
	return Series{}, false
}

var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

func seriesColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
