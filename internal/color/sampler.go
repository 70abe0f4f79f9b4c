// ROI hue sampling: gating, white balance and circular averaging
package color

import "math"

// Default gating thresholds.
const (
	DefaultMinSaturation = 0.18
	DefaultMinValue      = 0.18
	DefaultMinAlpha      = 128
	DefaultMinPixels     = 5
)

// Options configures which pixels count as color evidence.
type Options struct {
	MinSaturation float64 // exclusive lower bound on S
	MinValue      float64 // exclusive lower bound on V
	MinAlpha      uint8   // pixels with A below this are skipped
	MinPixels     int     // fewer qualifying pixels gives an undefined mean
}

// DefaultOptions returns the standard gating thresholds.
func DefaultOptions() Options {
	return Options{
		MinSaturation: DefaultMinSaturation,
		MinValue:      DefaultMinValue,
		MinAlpha:      DefaultMinAlpha,
		MinPixels:     DefaultMinPixels,
	}
}

// Estimate is the outcome of sampling one region.
// MeanHue is NaN when the sample was inconclusive.
type Estimate struct {
	MeanHue float64
	Count   int
}

// Defined reports whether the estimate carries a usable mean hue.
func (e Estimate) Defined() bool {
	return !math.IsNaN(e.MeanHue)
}

// Sampler turns a buffer of pixels into a single hue estimate.
// It holds no per-call state and is safe for concurrent use.
type Sampler struct {
	opts Options
}

// NewSampler creates a sampler. A MinPixels below 1 is raised to 1.
func NewSampler(opts Options) *Sampler {
	if opts.MinPixels < 1 {
		opts.MinPixels = 1
	}
	return &Sampler{opts: opts}
}

// Options returns the sampler's gating configuration.
func (s *Sampler) Options() Options {
	return s.opts
}

// Qualifying returns the HSV samples that pass the saturation, value and alpha
// gates. When whiteBalance is set the gray-world correction is applied to a copy
// of pixels first; the caller's slice is never modified.
func (s *Sampler) Qualifying(pixels []Pixel, whiteBalance bool) []HSV {
	if whiteBalance {
		pixels = GrayWorld(pixels)
	}

	out := make([]HSV, 0, len(pixels))
	for _, p := range pixels {
		if p.A < s.opts.MinAlpha {
			continue
		}
		hsv := RGBToHSV(p.R, p.G, p.B)
		if hsv.S > s.opts.MinSaturation && hsv.V > s.opts.MinValue {
			out = append(out, hsv)
		}
	}
	return out
}

// SampleHue computes the value-weighted circular mean hue of the qualifying pixels.
func (s *Sampler) SampleHue(pixels []Pixel, whiteBalance bool) Estimate {
	return s.estimate(s.Qualifying(pixels, whiteBalance))
}

// SampleRGBA is SampleHue over a tightly packed RGBA buffer.
func (s *Sampler) SampleRGBA(buf []byte, whiteBalance bool) Estimate {
	return s.SampleHue(PixelsFromRGBA(buf), whiteBalance)
}

func (s *Sampler) estimate(samples []HSV) Estimate {
	count := len(samples)
	if count < s.opts.MinPixels {
		return Estimate{MeanHue: math.NaN(), Count: count}
	}

	hues := make([]float64, count)
	weights := make([]float64, count)
	for i, hsv := range samples {
		hues[i] = hsv.H
		weights[i] = hsv.V
	}
	return Estimate{MeanHue: CircularMean(hues, weights), Count: count}
}
