// Calibration points, curves and named curve sources
package calibration

import (
	"math"
	"sort"

	"colorimetric-ph/internal/color"
)

// pH bounds and the neutral fallback value.
const (
	MinPH     = 1.0
	MaxPH     = 14.0
	NeutralPH = 7.0

	// MinUsablePoints is the smallest curve that can be interpolated.
	MinUsablePoints = 2
)

// Source names a calibration curve.
type Source string

// Built-in sources. Any other name is a preset.
const (
	SourceDefault Source = "default"
	SourceManual  Source = "manual"
)

// Point pairs an observed hue with the pH it indicates.
type Point struct {
	Hue float64 `json:"hue"`
	PH  float64 `json:"pH"`
}

// NewPoint builds a point with the hue wrapped into [0,360) and pH clamped to [1,14].
func NewPoint(hue, ph float64) Point {
	return Point{Hue: color.NormalizeHue(hue), PH: ClampPH(ph)}
}

// ClampPH limits ph to [MinPH, MaxPH].
func ClampPH(ph float64) float64 {
	return math.Max(MinPH, math.Min(MaxPH, ph))
}

// ValidPH reports whether ph lies in [MinPH, MaxPH].
func ValidPH(ph float64) bool {
	return ph >= MinPH && ph <= MaxPH
}

// Curve is a list of calibration points. Order is not significant for mapping.
type Curve []Point

// Usable reports whether the curve has enough points for interpolation.
func (c Curve) Usable() bool {
	return len(c) >= MinUsablePoints
}

// Clone returns an independent copy of the curve.
func (c Curve) Clone() Curve {
	if c == nil {
		return Curve{}
	}
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// Normalized returns a copy with every point passed through NewPoint.
func (c Curve) Normalized() Curve {
	out := make(Curve, len(c))
	for i, p := range c {
		out[i] = NewPoint(p.Hue, p.PH)
	}
	return out
}

// SortedByHue returns a copy ordered by ascending hue. Ties keep their input order.
func (c Curve) SortedByHue() Curve {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hue < out[j].Hue })
	return out
}

// SortedByPH returns a copy ordered by ascending pH, the order used for display.
func (c Curve) SortedByPH() Curve {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].PH < out[j].PH })
	return out
}

// DefaultCurve is the universal-indicator mapping used when nothing else is loaded.
func DefaultCurve() Curve {
	return Curve{
		{Hue: 0, PH: 1},    // red
		{Hue: 20, PH: 4},   // orange
		{Hue: 50, PH: 6},   // yellow
		{Hue: 110, PH: 7},  // green
		{Hue: 170, PH: 9},  // blue-green
		{Hue: 210, PH: 11}, // blue
		{Hue: 280, PH: 14}, // violet
	}
}
