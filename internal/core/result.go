package core

import (
	"encoding/json"
	"image"
	"math"
	"time"
)

// Result is one tick's reading. PH and MeanHue are NaN when the sample was
// inconclusive.
type Result struct {
	PH      float64
	MeanHue float64
	Count   int
	ROI     image.Rectangle
	Quality map[string]float64
	Grade   string   // good, fair or poor when diagnostics are on
	Issues  []string // hints for improving the sample
	Time    time.Time
}

func inconclusive(count int, roi image.Rectangle) Result {
	return Result{
		PH:      math.NaN(),
		MeanHue: math.NaN(),
		Count:   count,
		ROI:     roi,
		Time:    time.Now(),
	}
}

// Conclusive reports whether the result carries a pH.
func (r Result) Conclusive() bool {
	return !math.IsNaN(r.PH)
}

// MarkerPosition is the pH bar position in [0,1], or NaN when inconclusive.
func (r Result) MarkerPosition() float64 {
	if !r.Conclusive() {
		return math.NaN()
	}
	return math.Max(0, math.Min(1, r.PH/14))
}

type resultJSON struct {
	PH      *float64           `json:"pH"`
	MeanHue *float64           `json:"meanHueDegrees"`
	Count   int                `json:"sampleCount"`
	Quality map[string]float64 `json:"quality,omitempty"`
	Grade   string             `json:"qualityLevel,omitempty"`
	Issues  []string           `json:"issues,omitempty"`
}

// MarshalJSON emits null for absent pH and hue.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		PH:      optional(r.PH),
		MeanHue: optional(r.MeanHue),
		Count:   r.Count,
		Quality: r.Quality,
		Grade:   r.Grade,
		Issues:  r.Issues,
	})
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
