package calibration

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapHueToPHDefaultCurve(t *testing.T) {
	t.Parallel()

	curve := DefaultCurve()
	tests := []struct {
		name string
		hue  float64
		want float64
	}{
		{"first anchor", 0, 1},
		{"midpoint red-orange", 10, 2.5},
		{"last anchor", 280, 14},
		{"between orange and yellow", 30, 4 + 2.0/3.0},
		{"equidistant anchors", 245, 12.5},
		{"wraparound between violet and red", 340, 4.25},
		{"full turn", 370, 2.5},
		{"negative hue", -20, 4.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MapHueToPH(tt.hue, curve), 1e-9)
		})
	}
}

func TestMapHueToPHWraparoundStaysBetweenNeighbours(t *testing.T) {
	t.Parallel()

	curve := DefaultCurve()
	for hue := 281.0; hue < 360; hue++ {
		got := MapHueToPH(hue, curve)
		assert.GreaterOrEqual(t, got, 1.0, "hue=%v", hue)
		assert.LessOrEqual(t, got, 14.0, "hue=%v", hue)
	}
	// Moving from violet towards red the estimate must fall monotonically.
	prev := MapHueToPH(281, curve)
	for hue := 282.0; hue < 360; hue++ {
		got := MapHueToPH(hue, curve)
		assert.LessOrEqual(t, got, prev+1e-9, "hue=%v", hue)
		prev = got
	}
}

func TestMapHueToPHSmallCurves(t *testing.T) {
	t.Parallel()

	for _, hue := range []float64{0, 45, 90, 180, 359.9} {
		assert.Equal(t, NeutralPH, MapHueToPH(hue, nil))
		assert.Equal(t, NeutralPH, MapHueToPH(hue, Curve{}))
		assert.Equal(t, 7.0, MapHueToPH(hue, Curve{{Hue: 90, PH: 7}}))
	}
}

func TestMapHueToPHUnorderedCurve(t *testing.T) {
	t.Parallel()

	sorted := DefaultCurve()
	shuffled := Curve{sorted[4], sorted[0], sorted[6], sorted[2], sorted[5], sorted[1], sorted[3]}
	for hue := 0.0; hue < 360; hue += 7.5 {
		assert.InDelta(t, MapHueToPH(hue, sorted), MapHueToPH(hue, shuffled), 1e-9, "hue=%v", hue)
	}
}

func TestMapHueToPHAcrossZero(t *testing.T) {
	t.Parallel()

	curve := Curve{{Hue: 350, PH: 2}, {Hue: 10, PH: 4}}
	assert.InDelta(t, 3.0, MapHueToPH(0, curve), 1e-9)
	assert.InDelta(t, 2.5, MapHueToPH(355, curve), 1e-9)
	assert.InDelta(t, 3.5, MapHueToPH(5, curve), 1e-9)
}

func TestMapHueToPHDegenerateAnchors(t *testing.T) {
	t.Parallel()

	same := Curve{{Hue: 50, PH: 5}, {Hue: 50, PH: 9}}
	for _, hue := range []float64{0, 50, 100, 230} {
		assert.Equal(t, 5.0, MapHueToPH(hue, same))
	}

	dup := Curve{{Hue: 0, PH: 1}, {Hue: 0, PH: 1.5}, {Hue: 20, PH: 4}}
	assert.InDelta(t, 2.5, MapHueToPH(10, dup), 1e-9)
}

func TestMapHueToPHStaysWithinCurveRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(9)
		curve := make(Curve, n)
		lo, hi := MaxPH, MinPH
		for i := range curve {
			curve[i] = Point{Hue: rng.Float64() * 720, PH: MinPH + rng.Float64()*(MaxPH-MinPH)}
			if curve[i].PH < lo {
				lo = curve[i].PH
			}
			if curve[i].PH > hi {
				hi = curve[i].PH
			}
		}
		for hue := -360.0; hue < 720; hue += 13 {
			got := MapHueToPH(hue, curve)
			assert.GreaterOrEqual(t, got, lo-1e-9)
			assert.LessOrEqual(t, got, hi+1e-9)
		}
	}
}

func TestMapOrderedScan(t *testing.T) {
	t.Parallel()

	curve := DefaultCurve()
	assert.InDelta(t, 2.5, MapOrderedScan(10, curve), 1e-9)
	assert.InDelta(t, 1.0, MapOrderedScan(0, curve), 1e-9)
	assert.InDelta(t, 14.0, MapOrderedScan(340, curve), 1e-9, "no wraparound")
	assert.Equal(t, NeutralPH, MapOrderedScan(10, nil))
	assert.Equal(t, 3.0, MapOrderedScan(10, Curve{{Hue: 5, PH: 3}}))

	// The two policies disagree past the last anchor.
	assert.NotEqual(t, MapOrderedScan(340, curve), MapHueToPH(340, curve))
}
