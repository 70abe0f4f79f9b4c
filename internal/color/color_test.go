package color

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(n int, p Pixel) []Pixel {
	out := make([]Pixel, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestRGBToHSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"red", 255, 0, 0, HSV{H: 0, S: 1, V: 1}},
		{"green", 0, 255, 0, HSV{H: 120, S: 1, V: 1}},
		{"blue", 0, 0, 255, HSV{H: 240, S: 1, V: 1}},
		{"magenta", 255, 0, 255, HSV{H: 300, S: 1, V: 1}},
		{"black", 0, 0, 0, HSV{H: 0, S: 0, V: 0}},
		{"gray", 128, 128, 128, HSV{H: 0, S: 0, V: 128.0 / 255.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSV(tt.r, tt.g, tt.b)
			assert.InDelta(t, tt.want.H, got.H, 1e-9)
			assert.InDelta(t, tt.want.S, got.S, 1e-9)
			assert.InDelta(t, tt.want.V, got.V, 1e-9)
		})
	}
}

func TestNormalizeHueAndDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 330.0, NormalizeHue(-30), 1e-9)
	assert.InDelta(t, 0.0, NormalizeHue(720), 1e-9)
	assert.InDelta(t, 10.0, NormalizeHue(370), 1e-9)

	assert.InDelta(t, 20.0, HueDistance(350, 10), 1e-9)
	assert.InDelta(t, 180.0, HueDistance(0, 180), 1e-9)
	assert.InDelta(t, 0.0, HueDistance(10, 370), 1e-9)
	assert.InDelta(t, 60.0, HueDistance(-30, 30), 1e-9)
}

func TestCircularMean(t *testing.T) {
	t.Parallel()

	t.Run("opposite hues are degenerate", func(t *testing.T) {
		assert.True(t, math.IsNaN(CircularMean([]float64{0, 180}, []float64{1, 1})))
		assert.True(t, math.IsNaN(CircularMean([]float64{90, 270}, nil)))
	})

	t.Run("wraps across zero", func(t *testing.T) {
		got := CircularMean([]float64{350, 10}, nil)
		require.False(t, math.IsNaN(got))
		assert.Less(t, HueDistance(got, 0), 1e-9)
	})

	t.Run("weights pull the mean", func(t *testing.T) {
		got := CircularMean([]float64{0, 90}, []float64{3, 1})
		assert.Less(t, got, 45.0)
		assert.Greater(t, got, 0.0)
	})

	t.Run("empty and zero weight", func(t *testing.T) {
		assert.True(t, math.IsNaN(CircularMean(nil, nil)))
		assert.True(t, math.IsNaN(CircularMean([]float64{10, 20}, []float64{0, 0})))
	})
}

func TestCircularMeanInvariantUnderFullTurns(t *testing.T) {
	t.Parallel()

	hues := []float64{10, 40, 70, 300}
	weights := []float64{1, 0.5, 0.8, 0.3}
	base := CircularMean(hues, weights)
	require.False(t, math.IsNaN(base))

	shifts := [][]float64{
		{370, 40, 70, 300},
		{10, 400, 430, -60},
		{730, 40, -290, 660},
	}
	for _, shifted := range shifts {
		got := CircularMean(shifted, weights)
		assert.Less(t, HueDistance(base, got), 1e-9, "shifted=%v", shifted)
	}
}

func TestResultantLength(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, ResultantLength([]float64{30, 30}, []float64{1, 2}), 1e-12)
	assert.InDelta(t, 0.0, ResultantLength([]float64{0, 180}, []float64{1, 1}), 1e-12)
	assert.Equal(t, 0.0, ResultantLength(nil, nil))
}

func TestGrayWorld(t *testing.T) {
	t.Parallel()

	in := []Pixel{{R: 200, G: 100, B: 50, A: 255}}
	out := GrayWorld(in)
	require.Len(t, out, 1)
	assert.Equal(t, uint8(117), out[0].R)
	assert.Equal(t, uint8(117), out[0].G)
	assert.Equal(t, uint8(117), out[0].B)
	assert.Equal(t, Pixel{R: 200, G: 100, B: 50, A: 255}, in[0], "input must not change")

	dark := GrayWorld([]Pixel{{R: 0, G: 0, B: 10, A: 255}})
	assert.Equal(t, uint8(0), dark[0].R)
	assert.LessOrEqual(t, dark[0].B, uint8(255))

	assert.Empty(t, GrayWorld(nil))
}

func TestSamplerGrayBufferIsInconclusive(t *testing.T) {
	t.Parallel()

	s := NewSampler(DefaultOptions())
	for _, n := range []int{0, 1, 24 * 24, 256 * 256} {
		est := s.SampleHue(fill(n, Pixel{R: 128, G: 128, B: 128, A: 255}), false)
		assert.False(t, est.Defined())
		assert.Equal(t, 0, est.Count)

		est = s.SampleHue(fill(n, Pixel{R: 90, G: 90, B: 90, A: 255}), true)
		assert.False(t, est.Defined())
	}
}

func TestSamplerSolidColor(t *testing.T) {
	t.Parallel()

	s := NewSampler(DefaultOptions())
	est := s.SampleHue(fill(100, Pixel{R: 0, G: 255, B: 0, A: 255}), false)
	require.True(t, est.Defined())
	assert.Equal(t, 100, est.Count)
	assert.InDelta(t, 120.0, est.MeanHue, 1e-9)
}

func TestSamplerMinimumPixels(t *testing.T) {
	t.Parallel()

	s := NewSampler(DefaultOptions())
	est := s.SampleHue(fill(4, Pixel{R: 255, G: 0, B: 0, A: 255}), false)
	assert.False(t, est.Defined())
	assert.Equal(t, 4, est.Count)

	est = s.SampleHue(fill(5, Pixel{R: 255, G: 0, B: 0, A: 255}), false)
	assert.True(t, est.Defined())
	assert.Equal(t, 5, est.Count)
}

func TestSamplerSkipsTransparentPixels(t *testing.T) {
	t.Parallel()

	s := NewSampler(DefaultOptions())
	est := s.SampleHue(fill(50, Pixel{R: 255, G: 0, B: 0, A: 0}), false)
	assert.False(t, est.Defined())
	assert.Equal(t, 0, est.Count)
}

func TestSamplerDegenerateMeanKeepsCount(t *testing.T) {
	t.Parallel()

	pixels := append(fill(10, Pixel{R: 255, G: 0, B: 0, A: 255}), fill(10, Pixel{R: 0, G: 255, B: 255, A: 255})...)
	est := NewSampler(DefaultOptions()).SampleHue(pixels, false)
	assert.False(t, est.Defined())
	assert.Equal(t, 20, est.Count)
}

func TestSamplerWhiteBalanceLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	pixels := append(fill(30, Pixel{R: 220, G: 60, B: 40, A: 255}), fill(30, Pixel{R: 40, G: 200, B: 90, A: 255})...)
	before := make([]Pixel, len(pixels))
	copy(before, pixels)

	est := NewSampler(DefaultOptions()).SampleHue(pixels, true)
	assert.Equal(t, before, pixels)
	assert.Equal(t, 60, est.Count)
}

func TestSampleRGBA(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 0, 40*4+2)
	for i := 0; i < 40; i++ {
		buf = append(buf, 0, 0, 255, 255)
	}
	buf = append(buf, 1, 2) // partial trailing pixel

	est := NewSampler(DefaultOptions()).SampleRGBA(buf, false)
	require.True(t, est.Defined())
	assert.Equal(t, 40, est.Count)
	assert.InDelta(t, 240.0, est.MeanHue, 1e-9)
}
