// Pixel and HSV color primitives
package color

import "math"

// Pixel is one RGBA sample taken from a frame region.
// A doubles as the validity flag: pixels below the sampler's MinAlpha are skipped.
type Pixel struct {
	R, G, B, A uint8
}

// HSV is a pixel in hue/saturation/value space.
// H is in degrees [0,360), S and V are in [0,1].
type HSV struct {
	H float64
	S float64
	V float64
}

// RGBToHSV converts an 8-bit RGB triplet to HSV. Hue is 0 when saturation is 0.
func RGBToHSV(r, g, b uint8) HSV {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	var h float64
	switch {
	case delta == 0:
		h = 0
	case maxC == rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case maxC == gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}

	var s float64
	if maxC > 0 {
		s = delta / maxC
	}

	return HSV{H: h, S: s, V: maxC}
}

// NormalizeHue wraps any angle in degrees into [0,360).
func NormalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	// -1e-15 wraps to 360 after the addition above
	if h >= 360 {
		h = 0
	}
	return h
}

// HueDistance is the length of the shorter arc between two hues, in [0,180].
func HueDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		return 360 - d
	}
	return d
}

// PixelsFromRGBA splits a tightly packed RGBA buffer into pixels.
// A trailing partial pixel is ignored.
func PixelsFromRGBA(buf []byte) []Pixel {
	n := len(buf) / 4
	pixels := make([]Pixel, n)
	for i := 0; i < n; i++ {
		o := i * 4
		pixels[i] = Pixel{R: buf[o], G: buf[o+1], B: buf[o+2], A: buf[o+3]}
	}
	return pixels
}
