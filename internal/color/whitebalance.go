package color

import "math"

// GrayWorld returns a white-balanced copy of pixels. Each channel is scaled so its
// mean matches the gray mean (the average of the three channel means).
// Channel means below 1 are floored to 1, as is the gray mean.
func GrayWorld(pixels []Pixel) []Pixel {
	out := make([]Pixel, len(pixels))
	copy(out, pixels)
	if len(out) == 0 {
		return out
	}

	var sumR, sumG, sumB float64
	for _, p := range out {
		sumR += float64(p.R)
		sumG += float64(p.G)
		sumB += float64(p.B)
	}
	n := float64(len(out))
	meanR, meanG, meanB := sumR/n, sumG/n, sumB/n

	gray := math.Max((meanR+meanG+meanB)/3, 1)
	gainR := gray / math.Max(meanR, 1)
	gainG := gray / math.Max(meanG, 1)
	gainB := gray / math.Max(meanB, 1)

	for i := range out {
		out[i].R = scaleChannel(out[i].R, gainR)
		out[i].G = scaleChannel(out[i].G, gainG)
		out[i].B = scaleChannel(out[i].B, gainB)
	}
	return out
}

func scaleChannel(c uint8, gain float64) uint8 {
	v := math.Round(float64(c) * gain)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
