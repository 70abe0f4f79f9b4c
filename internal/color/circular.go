package color

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// degenerateTolerance is the resultant length, relative to the total weight,
// below which the mean direction is considered undefined.
const degenerateTolerance = 1e-9

// CircularMean returns the weighted circular mean of hues (degrees) in [0,360).
// A nil weights slice weights every hue equally. The result is NaN when hues is
// empty, the weights sum to zero, or the weighted unit vectors cancel out.
func CircularMean(hues, weights []float64) float64 {
	if len(hues) == 0 {
		return math.NaN()
	}
	if weights == nil {
		weights = make([]float64, len(hues))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(hues) {
		panic("color: hues and weights length mismatch")
	}

	rad := make([]float64, len(hues))
	cos := make([]float64, len(hues))
	sin := make([]float64, len(hues))
	for i, h := range hues {
		rad[i] = h * math.Pi / 180
		cos[i] = math.Cos(rad[i])
		sin[i] = math.Sin(rad[i])
	}

	total := 0.0
	for _, w := range weights {
		total += math.Abs(w)
	}
	if total == 0 {
		return math.NaN()
	}
	resultant := math.Hypot(floats.Dot(weights, cos), floats.Dot(weights, sin))
	if resultant <= degenerateTolerance*total {
		return math.NaN()
	}

	return NormalizeHue(stat.CircularMean(rad, weights) * 180 / math.Pi)
}

// ResultantLength is the mean resultant length of the weighted hues, in [0,1].
// 1 means every hue points the same way; 0 means they cancel out.
func ResultantLength(hues, weights []float64) float64 {
	if len(hues) == 0 || len(weights) != len(hues) {
		return 0
	}
	total := floats.Sum(weights)
	if total == 0 {
		return 0
	}
	var x, y float64
	for i, h := range hues {
		a := h * math.Pi / 180
		x += weights[i] * math.Cos(a)
		y += weights[i] * math.Sin(a)
	}
	return math.Hypot(x, y) / total
}
