// Concrete implementations of ROI quality metrics
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"colorimetric-ph/internal/color"
)

var errNoSamples = fmt.Errorf("no qualifying pixels")

// Coverage is the fraction of ROI pixels that passed the gates
type Coverage struct{}

// NewCoverage creates a new coverage metric
func NewCoverage() *Coverage {
	return &Coverage{}
}

func (c *Coverage) Calculate(sample Sample) (float64, error) {
	if sample.Total <= 0 {
		return 0, fmt.Errorf("empty region")
	}
	return float64(len(sample.Qualifying)) / float64(sample.Total), nil
}

func (c *Coverage) GetName() string              { return "Coverage" }
func (c *Coverage) GetDescription() string       { return "Fraction of region pixels saturated and bright enough to sample" }
func (c *Coverage) GetRange() (float64, float64) { return 0, 1 }
func (c *Coverage) IsHigherBetter() bool         { return true }

// MeanSaturation is the average saturation of qualifying pixels
type MeanSaturation struct{}

// NewMeanSaturation creates a new mean saturation metric
func NewMeanSaturation() *MeanSaturation {
	return &MeanSaturation{}
}

func (m *MeanSaturation) Calculate(sample Sample) (float64, error) {
	if len(sample.Qualifying) == 0 {
		return 0, errNoSamples
	}
	s := make([]float64, len(sample.Qualifying))
	for i, p := range sample.Qualifying {
		s[i] = p.S
	}
	return stat.Mean(s, nil), nil
}

func (m *MeanSaturation) GetName() string              { return "Mean saturation" }
func (m *MeanSaturation) GetDescription() string       { return "Average saturation of the sampled pixels" }
func (m *MeanSaturation) GetRange() (float64, float64) { return 0, 1 }
func (m *MeanSaturation) IsHigherBetter() bool         { return true }

// MeanValue is the average brightness of qualifying pixels
type MeanValue struct{}

// NewMeanValue creates a new mean value metric
func NewMeanValue() *MeanValue {
	return &MeanValue{}
}

func (m *MeanValue) Calculate(sample Sample) (float64, error) {
	if len(sample.Qualifying) == 0 {
		return 0, errNoSamples
	}
	v := make([]float64, len(sample.Qualifying))
	for i, p := range sample.Qualifying {
		v[i] = p.V
	}
	return stat.Mean(v, nil), nil
}

func (m *MeanValue) GetName() string              { return "Mean value" }
func (m *MeanValue) GetDescription() string       { return "Average brightness of the sampled pixels" }
func (m *MeanValue) GetRange() (float64, float64) { return 0, 1 }
func (m *MeanValue) IsHigherBetter() bool         { return true }

// HueConcentration is the brightness-weighted mean resultant length of the hues.
// 1 means a uniform color; values near 0 mean the mean hue is unreliable.
type HueConcentration struct{}

// NewHueConcentration creates a new hue concentration metric
func NewHueConcentration() *HueConcentration {
	return &HueConcentration{}
}

func (h *HueConcentration) Calculate(sample Sample) (float64, error) {
	if len(sample.Qualifying) == 0 {
		return 0, errNoSamples
	}
	hues := make([]float64, len(sample.Qualifying))
	weights := make([]float64, len(sample.Qualifying))
	for i, p := range sample.Qualifying {
		hues[i] = p.H
		weights[i] = p.V
	}
	return color.ResultantLength(hues, weights), nil
}

func (h *HueConcentration) GetName() string              { return "Hue concentration" }
func (h *HueConcentration) GetDescription() string       { return "Agreement between sampled hues (mean resultant length)" }
func (h *HueConcentration) GetRange() (float64, float64) { return 0, 1 }
func (h *HueConcentration) IsHigherBetter() bool         { return true }
