// Hue to pH interpolation along the hue ring
package calibration

import (
	"math"

	"colorimetric-ph/internal/color"
)

// degenerateArc is the arc length, in degrees, below which two anchors are
// treated as the same hue.
const degenerateArc = 1e-6

// MapHueToPH interpolates a pH for hue from curve.
//
// The curve may be unordered. An empty curve maps to NeutralPH and a single point
// maps every hue to its pH. Otherwise the nearest point (by circular distance) is
// paired with its ring neighbour on the same side as the query, and pH is
// interpolated linearly by arc length between the two. The result is not clamped.
func MapHueToPH(hue float64, curve Curve) float64 {
	switch len(curve) {
	case 0:
		return NeutralPH
	case 1:
		return curve[0].PH
	}

	pts := make(Curve, len(curve))
	for i, p := range curve {
		pts[i] = Point{Hue: color.NormalizeHue(p.Hue), PH: p.PH}
	}
	pts = pts.SortedByHue()
	q := color.NormalizeHue(hue)

	best, bestDist := 0, math.Inf(1)
	for i, p := range pts {
		if d := color.HueDistance(q, p.Hue); d < bestDist {
			best, bestDist = i, d
		}
	}
	anchor := pts[best]

	offset := color.NormalizeHue(q - anchor.Hue)
	if offset == 0 {
		return anchor.PH
	}

	var partner Point
	var pos, arc float64
	if offset <= 180 {
		partner = pts[neighbour(pts, best, 1)]
		arc = color.NormalizeHue(partner.Hue - anchor.Hue)
		pos = offset
	} else {
		partner = pts[neighbour(pts, best, -1)]
		arc = color.NormalizeHue(anchor.Hue - partner.Hue)
		pos = 360 - offset
	}
	if arc < degenerateArc {
		return anchor.PH
	}

	t := math.Max(0, math.Min(1, pos/arc))
	return anchor.PH + t*(partner.PH-anchor.PH)
}

// neighbour walks the sorted ring from i in direction dir, skipping points that
// share i's hue. It returns i itself when every point has the same hue.
func neighbour(pts Curve, i, dir int) int {
	n := len(pts)
	j := i
	for step := 1; step < n; step++ {
		j = ((i+dir*step)%n + n) % n
		if color.HueDistance(pts[j].Hue, pts[i].Hue) >= degenerateArc {
			return j
		}
	}
	return i
}

// MapOrderedScan is the older strict-scan mapping: it walks the curve in its given
// order and interpolates between the first point whose hue exceeds the query and
// the point before it, using straight hue differences. Queries below the first
// point or above the last clamp to that point's pH. It ignores wraparound and
// depends on the curve being sorted, and is kept only for side-by-side comparison.
func MapOrderedScan(hue float64, curve Curve) float64 {
	switch len(curve) {
	case 0:
		return NeutralPH
	case 1:
		return curve[0].PH
	}

	q := color.NormalizeHue(hue)
	if q <= curve[0].Hue {
		return curve[0].PH
	}
	for i := 1; i < len(curve); i++ {
		hi := curve[i]
		if hi.Hue > q {
			lo := curve[i-1]
			span := hi.Hue - lo.Hue
			if span == 0 {
				return hi.PH
			}
			return lo.PH + (q-lo.Hue)/span*(hi.PH-lo.PH)
		}
	}
	return curve[len(curve)-1].PH
}
