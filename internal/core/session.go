// Estimation session: ROI sampling, hue mapping and calibration capture per tick
package core

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/color"
	"colorimetric-ph/internal/metrics"
)

// DefaultReportMinPixels is the qualifying-pixel count below which a tick is
// reported as inconclusive and a capture is refused.
const DefaultReportMinPixels = 20

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Session.
type Options struct {
	ROISize         int
	WhiteBalance    bool
	ReportMinPixels int
	Sampler         color.Options
	// Diagnostics attaches ROI quality metrics to every result.
	Diagnostics bool
}

// DefaultOptions returns the stock session settings.
func DefaultOptions() Options {
	return Options{
		ROISize:         DefaultROISize,
		WhiteBalance:    true,
		ReportMinPixels: DefaultReportMinPixels,
		Sampler:         color.DefaultOptions(),
	}
}

// Session drives the estimation loop. Tick may run on its own goroutine while UI
// actions call the other methods.
type Session struct {
	mu sync.RWMutex

	source    FrameSource
	store     *calibration.Service
	sampler   *color.Sampler
	evaluator *metrics.Evaluator
	debugger  *TickDebugger
	logger    logrus.FieldLogger

	roiSize      int
	whiteBalance bool
	reportMin    int
	state        State
	last         Result
}

// NewSession creates an idle session reading from source and mapping through store.
func NewSession(source FrameSource, store *calibration.Service, opts Options, logger logrus.FieldLogger) *Session {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if opts.ReportMinPixels <= 0 {
		opts.ReportMinPixels = DefaultReportMinPixels
	}
	if opts.ROISize == 0 {
		opts.ROISize = DefaultROISize
	}

	s := &Session{
		source:       source,
		store:        store,
		sampler:      color.NewSampler(opts.Sampler),
		debugger:     NewTickDebugger(logger),
		logger:       logger,
		roiSize:      ClampROISize(opts.ROISize),
		whiteBalance: opts.WhiteBalance,
		reportMin:    opts.ReportMinPixels,
		state:        StateIdle,
		last:         inconclusive(0, image.Rectangle{}),
	}
	if opts.Diagnostics {
		s.evaluator = metrics.NewEvaluator()
	}
	return s
}

// Calibration returns the calibration store the session maps through.
func (s *Session) Calibration() *calibration.Service {
	return s.store
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start moves an idle session to running. Other states are unchanged.
func (s *Session) Start() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		s.state = StateRunning
		s.logger.Info("estimation started")
	}
	return s.state
}

// Toggle pauses a running session or resumes a paused one.
func (s *Session) Toggle() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning:
		s.state = StatePaused
	case StatePaused:
		s.state = StateRunning
	}
	s.logger.WithField("state", s.state).Info("estimation toggled")
	return s.state
}

// Tick evaluates the ROI once. ok is false when the session is not running, in
// which case nothing is evaluated.
func (s *Session) Tick() (r Result, ok bool) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != StateRunning {
		return Result{}, false
	}

	start := time.Now()
	r = s.evaluate()
	s.debugger.Record(r, time.Since(start))

	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
	return r, true
}

// Last returns the most recent tick result.
func (s *Session) Last() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Stats summarises recent ticks.
func (s *Session) Stats() TickSummary {
	return s.debugger.Summary()
}

// ResetStats forgets the recorded tick timings.
func (s *Session) ResetStats() {
	s.debugger.Reset()
}

// Run calls Tick every interval until ctx is done, passing each result to fn.
// Ticks while paused or idle are skipped.
func (s *Session) Run(ctx context.Context, interval time.Duration, fn func(Result)) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r, ok := s.Tick(); ok && fn != nil {
				fn(r)
			}
		}
	}
}

func (s *Session) settings() (size int, wb bool, reportMin int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roiSize, s.whiteBalance, s.reportMin
}

func (s *Session) readROI(size int) (image.Rectangle, []color.Pixel, error) {
	w, h := s.source.FrameSize()
	rect := CenteredROI(size, w, h)
	if rect.Empty() {
		return rect, nil, ErrNoFrame
	}
	buf, err := s.source.ReadRegion(rect)
	if err != nil {
		return rect, nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
	}
	return rect, color.PixelsFromRGBA(buf), nil
}

func (s *Session) evaluate() Result {
	size, wb, reportMin := s.settings()

	rect, pixels, err := s.readROI(size)
	if err != nil {
		s.logger.WithError(err).Debug("no pixels this tick")
		return inconclusive(0, rect)
	}

	var r Result
	qualifying := s.sampler.Qualifying(pixels, wb)
	est := s.sampler.SampleHue(pixels, wb)
	if !est.Defined() || est.Count < reportMin {
		r = inconclusive(est.Count, rect)
	} else {
		r = Result{
			PH:      calibration.ClampPH(s.store.MapHue(est.MeanHue)),
			MeanHue: est.MeanHue,
			Count:   est.Count,
			ROI:     rect,
			Time:    time.Now(),
		}
	}
	if s.evaluator != nil {
		report := s.evaluator.GenerateReport(metrics.Sample{Total: len(pixels), Qualifying: qualifying})
		r.Quality = report.Metrics
		r.Grade = report.QualityLevel
		if len(report.Issues) > 0 {
			r.Issues = report.Issues
		}
	}
	return r
}

// Capture samples the ROI now and stores its hue against ph in the manual curve,
// then selects the manual curve. An inconclusive sample or a pH outside [1,14]
// returns a *calibration.ValidationError and changes nothing. A persistence
// failure is returned after the point has been added in memory.
func (s *Session) Capture(ph float64) (calibration.Point, error) {
	size, wb, reportMin := s.settings()

	_, pixels, err := s.readROI(size)
	if err != nil {
		return calibration.Point{}, &calibration.ValidationError{
			Field:  "sample",
			Reason: "no frame to sample",
			Err:    err,
		}
	}
	est := s.sampler.SampleHue(pixels, wb)
	if !est.Defined() || est.Count < reportMin {
		return calibration.Point{}, &calibration.ValidationError{
			Field:  "sample",
			Value:  float64(est.Count),
			Reason: fmt.Sprintf("need at least %d colored pixels with a defined hue", reportMin),
			Err:    ErrInsufficientSample,
		}
	}

	err = s.store.AddManualPoint(est.MeanHue, ph)
	var verr *calibration.ValidationError
	if errors.As(err, &verr) {
		return calibration.Point{}, err
	}

	p := calibration.NewPoint(est.MeanHue, ph)
	active, _ := s.store.SetMode(calibration.SourceManual)
	s.logger.WithFields(logrus.Fields{
		"hue":   p.Hue,
		"ph":    p.PH,
		"count": est.Count,
		"mode":  active,
	}).Info("calibration point captured")
	return p, err
}

// ROISize returns the ROI side length.
func (s *Session) ROISize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roiSize
}

// SetROISize sets the ROI side length, clamped to [24,256], and returns it.
func (s *Session) SetROISize(size int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roiSize = ClampROISize(size)
	return s.roiSize
}

// GrowROI enlarges the ROI by one step.
func (s *Session) GrowROI() int {
	return s.SetROISize(s.ROISize() + ROIStep)
}

// ShrinkROI reduces the ROI by one step.
func (s *Session) ShrinkROI() int {
	return s.SetROISize(s.ROISize() - ROIStep)
}

// CurrentROI returns the region a tick would sample now.
func (s *Session) CurrentROI() image.Rectangle {
	w, h := s.source.FrameSize()
	return CenteredROI(s.ROISize(), w, h)
}

// WhiteBalance reports whether gray-world correction is applied.
func (s *Session) WhiteBalance() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whiteBalance
}

// SetWhiteBalance enables or disables gray-world correction.
func (s *Session) SetWhiteBalance(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whiteBalance = on
}

// Mode returns the active calibration source.
func (s *Session) Mode() calibration.Source {
	return s.store.Mode()
}

// SetMode selects the active calibration source, falling back to default when
// the requested curve is not usable.
func (s *Session) SetMode(src calibration.Source) (calibration.Source, bool) {
	return s.store.SetMode(src)
}

// ResetManual clears the manual curve and returns to the default curve.
func (s *Session) ResetManual() error {
	return s.store.ResetManual()
}

// Reload restores the manual curve from storage and selects it.
func (s *Session) Reload() (calibration.Curve, calibration.Source) {
	curve := s.store.Restore()
	active, _ := s.store.SetMode(calibration.SourceManual)
	return curve, active
}

// Import replaces the manual curve with data and selects it. On a
// *calibration.ParseError nothing changes.
func (s *Session) Import(data []byte) (calibration.Curve, calibration.Source, error) {
	curve, err := s.store.ImportSnapshot(data)
	var perr *calibration.ParseError
	if errors.As(err, &perr) {
		return nil, s.store.Mode(), err
	}
	active, _ := s.store.SetMode(calibration.SourceManual)
	return curve, active, err
}

// Export serializes the manual curve.
func (s *Session) Export() ([]byte, error) {
	return s.store.ExportSnapshot()
}

// Points returns the manual points ordered by pH.
func (s *Session) Points() calibration.Curve {
	return s.store.NormalizedCurve(calibration.SourceManual).SortedByPH()
}
