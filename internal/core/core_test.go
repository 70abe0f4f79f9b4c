package core

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	stdcolor "image/color"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colorimetric-ph/internal/calibration"
)

var (
	green = stdcolor.NRGBA{R: 0, G: 255, B: 0, A: 255}
	blue  = stdcolor.NRGBA{R: 0, G: 0, B: 255, A: 255}
	gray  = stdcolor.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

type memKV struct {
	mu     sync.Mutex
	values map[string][]byte
	setErr error
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string][]byte)}
}

func (m *memKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func solid(w, h int, c stdcolor.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func solidFrame(t *testing.T, c stdcolor.NRGBA) *ImageFrame {
	t.Helper()
	f, err := NewImageFrameFrom(solid(100, 100, c), "test")
	require.NoError(t, err)
	return f
}

func newTestSession(t *testing.T, src FrameSource, kv calibration.KV) *Session {
	t.Helper()
	opts := DefaultOptions()
	opts.WhiteBalance = false
	return NewSession(src, calibration.NewService(kv), opts, nil)
}

func TestCenteredROI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		size, w, h int
		want       image.Rectangle
	}{
		{name: "default in vga", size: 64, w: 640, h: 480, want: image.Rect(288, 208, 352, 272)},
		{name: "clamped up", size: 10, w: 640, h: 480, want: image.Rect(308, 228, 332, 252)},
		{name: "clamped down", size: 500, w: 640, h: 480, want: image.Rect(192, 112, 448, 368)},
		{name: "frame smaller than roi", size: 64, w: 20, h: 20, want: image.Rect(0, 0, 20, 20)},
		{name: "odd frame", size: 24, w: 25, h: 25, want: image.Rect(0, 0, 24, 24)},
		{name: "no frame", size: 64, w: 0, h: 0, want: image.Rectangle{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CenteredROI(tt.size, tt.w, tt.h))
		})
	}
}

func TestImageFrameReadRegion(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(10, 10, 14, 14))
	img.SetNRGBA(11, 12, stdcolor.NRGBA{R: 10, G: 20, B: 30, A: 255})
	f, err := NewImageFrameFrom(img, "offset")
	require.NoError(t, err)

	w, h := f.FrameSize()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	buf, err := f.ReadRegion(image.Rect(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, buf, 2*2*4)
	assert.Equal(t, []byte{10, 20, 30, 255}, buf[:4])

	_, err = f.ReadRegion(image.Rect(20, 20, 30, 30))
	assert.Error(t, err)
}

func TestImageFrameEmpty(t *testing.T) {
	t.Parallel()
	f := NewImageFrame()
	assert.False(t, f.HasImage())
	_, err := f.ReadRegion(image.Rect(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrNoFrame)

	assert.Error(t, f.SetImage(nil, "nil"))
	assert.Error(t, f.SetImage(image.NewNRGBA(image.Rectangle{}), "empty"))
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)

	assert.Equal(t, StateIdle, s.State())
	_, ok := s.Tick()
	assert.False(t, ok, "idle sessions do not tick")

	assert.Equal(t, StateIdle, s.Toggle(), "toggle does not start an idle session")
	assert.Equal(t, StateRunning, s.Start())
	_, ok = s.Tick()
	assert.True(t, ok)

	assert.Equal(t, StatePaused, s.Toggle())
	_, ok = s.Tick()
	assert.False(t, ok)

	assert.Equal(t, StatePaused, s.Start(), "start does not resume")
	assert.Equal(t, StateRunning, s.Toggle())
	assert.Equal(t, "running", s.State().String())
}

func TestTickConclusive(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)
	s.Start()

	r, ok := s.Tick()
	require.True(t, ok)
	require.True(t, r.Conclusive())
	assert.InDelta(t, 120, r.MeanHue, 1e-9)
	assert.Equal(t, 64*64, r.Count)
	assert.Equal(t, image.Rect(18, 18, 82, 82), r.ROI)
	// between 110 -> 7 and 170 -> 9 on the default curve
	assert.InDelta(t, 7+2.0/6, r.PH, 1e-6)
	assert.InDelta(t, r.PH/14, r.MarkerPosition(), 1e-12)
	assert.Nil(t, r.Quality)

	assert.Equal(t, r.PH, s.Last().PH)
}

func TestTickWithWhiteBalance(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)
	s.SetWhiteBalance(true)
	assert.True(t, s.WhiteBalance())
	s.Start()

	r, _ := s.Tick()
	require.True(t, r.Conclusive())
	assert.InDelta(t, 120, r.MeanHue, 1e-9)
}

func TestTickInconclusive(t *testing.T) {
	t.Parallel()

	t.Run("gray frame", func(t *testing.T) {
		s := newTestSession(t, solidFrame(t, gray), nil)
		s.Start()
		r, _ := s.Tick()
		assert.False(t, r.Conclusive())
		assert.True(t, math.IsNaN(r.MeanHue))
		assert.Equal(t, 0, r.Count)
		assert.True(t, math.IsNaN(r.MarkerPosition()))

		data, err := json.Marshal(r)
		require.NoError(t, err)
		assert.JSONEq(t, `{"pH":null,"meanHueDegrees":null,"sampleCount":0}`, string(data))
	})

	t.Run("below reporting threshold", func(t *testing.T) {
		img := solid(100, 100, gray)
		for y := 48; y < 52; y++ {
			for x := 48; x < 52; x++ {
				img.SetNRGBA(x, y, green)
			}
		}
		f, err := NewImageFrameFrom(img, "patch")
		require.NoError(t, err)

		s := newTestSession(t, f, nil)
		s.Start()
		r, _ := s.Tick()
		assert.False(t, r.Conclusive())
		assert.Equal(t, 16, r.Count, "count is still reported")
		assert.True(t, math.IsNaN(r.MeanHue))
	})

	t.Run("no frame", func(t *testing.T) {
		s := newTestSession(t, NewImageFrame(), nil)
		s.Start()
		r, ok := s.Tick()
		assert.True(t, ok)
		assert.False(t, r.Conclusive())
		assert.Equal(t, 0, r.Count)
	})
}

func TestTickDiagnostics(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	opts.Diagnostics = true
	s := NewSession(solidFrame(t, green), calibration.NewService(nil), opts, nil)
	s.Start()

	r, _ := s.Tick()
	require.NotNil(t, r.Quality)
	assert.InDelta(t, 1, r.Quality["coverage"], 1e-12)
	assert.InDelta(t, 1, r.Quality["hue_concentration"], 1e-9)
	assert.Contains(t, []string{"good", "fair", "poor"}, r.Grade)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"quality"`)
	assert.Contains(t, string(data), `"qualityLevel"`)
}

func TestResultJSONConclusive(t *testing.T) {
	t.Parallel()
	r := Result{PH: 7.5, MeanHue: 120, Count: 42}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pH":7.5,"meanHueDegrees":120,"sampleCount":42}`, string(data))
}

func TestROIControls(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)

	assert.Equal(t, 64, s.ROISize())
	assert.Equal(t, 80, s.GrowROI())
	assert.Equal(t, 64, s.ShrinkROI())
	assert.Equal(t, 256, s.SetROISize(500))
	assert.Equal(t, 256, s.GrowROI())
	assert.Equal(t, 24, s.SetROISize(10))
	assert.Equal(t, 24, s.ShrinkROI())
	assert.Equal(t, image.Rect(38, 38, 62, 62), s.CurrentROI())
}

func TestCaptureRejectsInconclusiveSample(t *testing.T) {
	t.Parallel()
	kv := newMemKV()
	s := newTestSession(t, solidFrame(t, gray), kv)

	_, err := s.Capture(7)
	var verr *calibration.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrInsufficientSample)
	assert.Empty(t, s.Points())
	assert.Equal(t, calibration.SourceDefault, s.Mode())
	assert.Empty(t, kv.values)
}

func TestCaptureRejectsNoFrame(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, NewImageFrame(), nil)
	_, err := s.Capture(7)
	var verr *calibration.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestCaptureRejectsPHOutOfRange(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)

	for _, ph := range []float64{0.5, 14.5, math.NaN()} {
		_, err := s.Capture(ph)
		var verr *calibration.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, calibration.ErrPHOutOfRange)
	}
	assert.Empty(t, s.Points())
}

func TestCaptureBuildsManualCurve(t *testing.T) {
	t.Parallel()
	kv := newMemKV()
	frame := solidFrame(t, green)
	s := newTestSession(t, frame, kv)
	s.Start()

	p, err := s.Capture(8)
	require.NoError(t, err)
	assert.InDelta(t, 120, p.Hue, 1e-9)
	assert.Equal(t, 8.0, p.PH)
	// a single point is not usable, so the default stays active
	assert.Equal(t, calibration.SourceDefault, s.Mode())

	require.NoError(t, frame.SetImage(solid(100, 100, blue), "blue"))
	_, err = s.Capture(10)
	require.NoError(t, err)
	assert.Equal(t, calibration.SourceManual, s.Mode())

	pts := s.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, 8.0, pts[0].PH)
	assert.Equal(t, 10.0, pts[1].PH)
	assert.Contains(t, string(kv.values[calibration.DefaultStorageKey]), `"pH":10`)

	require.NoError(t, frame.SetImage(solid(100, 100, green), "green"))
	r, _ := s.Tick()
	assert.InDelta(t, 8, r.PH, 1e-6)
}

func TestCaptureKeepsPointWhenPersistFails(t *testing.T) {
	t.Parallel()
	kv := newMemKV()
	kv.setErr = errors.New("disk full")
	s := newTestSession(t, solidFrame(t, green), kv)

	p, err := s.Capture(9)
	require.Error(t, err)
	var verr *calibration.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Equal(t, 9.0, p.PH)
	assert.Len(t, s.Points(), 1)
}

func TestResetReloadImportExport(t *testing.T) {
	t.Parallel()
	kv := newMemKV()
	kv.values[calibration.DefaultStorageKey] = []byte(`[{"hue":30,"pH":5},{"hue":200,"pH":11}]`)
	s := newTestSession(t, solidFrame(t, green), kv)

	curve, active := s.Reload()
	assert.Len(t, curve, 2)
	assert.Equal(t, calibration.SourceManual, active)

	require.NoError(t, s.ResetManual())
	assert.Equal(t, calibration.SourceDefault, s.Mode())
	assert.Empty(t, s.Points())

	_, active, err := s.Import([]byte(`{"hue":1}`))
	var perr *calibration.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, calibration.SourceDefault, active)
	assert.Empty(t, s.Points())

	curve, active, err = s.Import([]byte(`[{"hue":90,"pH":"12"},{"hue":10,"pH":2},{"pH":3}]`))
	require.NoError(t, err)
	assert.Len(t, curve, 2)
	assert.Equal(t, calibration.SourceManual, active)

	pts := s.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, 2.0, pts[0].PH)

	data, err := s.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {")
	assert.Contains(t, string(data), `"hue": 90`)

	m, ok := s.SetMode(calibration.SourceDefault)
	assert.True(t, ok)
	assert.Equal(t, calibration.SourceDefault, m)
}

func TestRun(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Result
	err := s.Run(ctx, time.Millisecond, func(r Result) {
		if ctx.Err() != nil {
			return
		}
		got = append(got, r)
		if len(got) == 3 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 3)
	assert.True(t, got[0].Conclusive())

	stats := s.Stats()
	assert.GreaterOrEqual(t, stats.Ticks, 3)
	assert.Equal(t, stats.Ticks, stats.Conclusive)
	assert.GreaterOrEqual(t, stats.P95Millis, 0.0)

	s.ResetStats()
	assert.Zero(t, s.Stats().Ticks)
}

func TestRunRejectsBadInterval(t *testing.T) {
	t.Parallel()
	s := newTestSession(t, solidFrame(t, green), nil)
	assert.Error(t, s.Run(context.Background(), 0, nil))
}

func TestTickDebuggerRing(t *testing.T) {
	t.Parallel()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	d := NewTickDebugger(logger)

	for i := 0; i < tickHistory+10; i++ {
		d.Record(Result{PH: math.NaN()}, time.Duration(i)*time.Millisecond)
	}
	s := d.Summary()
	assert.Equal(t, tickHistory+10, s.Ticks)
	assert.Equal(t, 0, s.Conclusive)
	assert.Len(t, d.durations, tickHistory)
	assert.Equal(t, time.Duration(tickHistory+9)*time.Millisecond, s.LastDuration)

	d.Reset()
	assert.Equal(t, TickSummary{}, d.Summary())
}
