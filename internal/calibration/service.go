// Calibration service: owns every curve and the active mode selection
package calibration

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultStorageKey is where the manual curve is persisted.
const DefaultStorageKey = "ph_manual_calibration_v1"

// KV is the durable key-value store holding the manual curve.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// Service holds the default, manual and preset curves and the active mode.
// All methods are safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	curves map[Source]Curve
	mode   Source
	kv     KV
	key    string
	logger logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.key = key
		}
	}
}

// WithPreset registers a read-only preset curve.
func WithPreset(name Source, curve Curve) Option {
	return func(s *Service) {
		if name != "" && name != SourceManual {
			s.curves[name] = curve.Normalized()
		}
	}
}

// NewService creates a service with the built-in default curve and an empty manual
// curve. kv may be nil, in which case nothing is persisted.
func NewService(kv KV, opts ...Option) *Service {
	s := &Service{
		curves: map[Source]Curve{
			SourceDefault: DefaultCurve(),
			SourceManual:  {},
		},
		mode:   SourceDefault,
		kv:     kv,
		key:    DefaultStorageKey,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Sources lists the known curves: default, manual, then presets by name.
func (s *Service) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presets := make([]Source, 0, len(s.curves))
	for name := range s.curves {
		if name != SourceDefault && name != SourceManual {
			presets = append(presets, name)
		}
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i] < presets[j] })
	return append([]Source{SourceDefault, SourceManual}, presets...)
}

// NormalizedCurve returns a normalized copy of the named curve, or an empty curve
// for an unknown name.
func (s *Service) NormalizedCurve(src Source) Curve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curves[src].Normalized()
}

// Mode returns the active source.
func (s *Service) Mode() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode selects the active curve. Selecting a curve with fewer than two points,
// or an unknown one, selects the default instead; ok reports whether the request
// was honoured.
func (s *Service) SetMode(src Source) (active Source, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setModeLocked(src)
}

func (s *Service) setModeLocked(src Source) (Source, bool) {
	curve, known := s.curves[src]
	if src == SourceDefault || (known && curve.Usable()) {
		s.mode = src
		return src, true
	}
	s.logger.WithFields(logrus.Fields{
		"requested": src,
		"points":    len(curve),
	}).Info("calibration curve not usable, using default")
	s.mode = SourceDefault
	return SourceDefault, false
}

// ActiveCurve returns the normalized active curve, or the default curve when the
// active one has dropped below two points.
func (s *Service) ActiveCurve() Curve {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if curve := s.curves[s.mode]; curve.Usable() {
		return curve.Normalized()
	}
	return s.curves[SourceDefault].Normalized()
}

// MapHue maps hue through the active curve. The result is not clamped.
func (s *Service) MapHue(hue float64) float64 {
	return MapHueToPH(hue, s.ActiveCurve())
}

// AddManualPoint appends a captured point to the manual curve and persists it.
// A pH outside [1,14] is rejected with a *ValidationError and nothing changes.
// A persistence failure is returned, but the point stays in memory.
func (s *Service) AddManualPoint(hue, ph float64) error {
	if math.IsNaN(ph) || !ValidPH(ph) {
		return phRangeError(ph)
	}
	if math.IsNaN(hue) || math.IsInf(hue, 0) {
		return &ValidationError{Field: "hue", Value: hue, Reason: "must be a finite angle"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := NewPoint(hue, ph)
	s.curves[SourceManual] = append(s.curves[SourceManual].Clone(), p)
	s.logger.WithFields(logrus.Fields{
		"hue":    p.Hue,
		"ph":     p.PH,
		"points": len(s.curves[SourceManual]),
	}).Info("manual calibration point added")
	return s.persistLocked()
}

// ResetManual clears the manual curve, persists the empty curve and falls back to
// the default curve if manual was active.
func (s *Service) ResetManual() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.curves[SourceManual] = Curve{}
	if s.mode == SourceManual {
		s.mode = SourceDefault
	}
	s.logger.Info("manual calibration cleared")
	return s.persistLocked()
}

// ReplaceManual swaps in a new manual curve and persists it. Incomplete entries are
// dropped; the number of accepted points is returned.
func (s *Service) ReplaceManual(points []RawPoint) (int, error) {
	curve := pointsFrom(points)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.curves[SourceManual] = curve
	if s.mode == SourceManual && !curve.Usable() {
		s.mode = SourceDefault
	}
	s.logger.WithFields(logrus.Fields{
		"accepted": len(curve),
		"dropped":  len(points) - len(curve),
	}).Info("manual calibration replaced")
	return len(curve), s.persistLocked()
}

// ReplacePreset swaps in the default curve or a named preset. Incomplete entries
// are dropped. The manual curve cannot be replaced this way.
func (s *Service) ReplacePreset(src Source, points []RawPoint) (int, error) {
	if src == "" {
		return 0, errors.New("preset name is empty")
	}
	if src == SourceManual {
		return 0, fmt.Errorf("%q is not a preset, use ReplaceManual", src)
	}
	curve := pointsFrom(points)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.curves[src] = curve
	if s.mode == src && !curve.Usable() {
		s.mode = SourceDefault
	}
	s.logger.WithFields(logrus.Fields{
		"source":   src,
		"accepted": len(curve),
		"dropped":  len(points) - len(curve),
	}).Debug("calibration preset replaced")
	return len(curve), nil
}

// Persist writes the manual curve to the key-value store.
func (s *Service) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked()
}

func (s *Service) persistLocked() error {
	if s.kv == nil {
		return nil
	}
	data, err := EncodeSnapshot(s.curves[SourceManual], "")
	if err != nil {
		return fmt.Errorf("encode manual calibration: %w", err)
	}
	if err := s.kv.Set(s.key, data); err != nil {
		s.logger.WithError(err).WithField("key", s.key).Error("failed to persist manual calibration")
		return fmt.Errorf("persist manual calibration: %w", err)
	}
	return nil
}

// Restore reloads the manual curve from the key-value store. A missing, unreadable
// or corrupt record restores an empty curve.
func (s *Service) Restore() Curve {
	curve := s.readStored()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.curves[SourceManual] = curve
	if s.mode == SourceManual && !curve.Usable() {
		s.mode = SourceDefault
	}
	return curve.Clone()
}

func (s *Service) readStored() Curve {
	if s.kv == nil {
		return Curve{}
	}
	log := s.logger.WithField("key", s.key)

	data, ok, err := s.kv.Get(s.key)
	if err != nil {
		log.WithError(err).Warn("failed to read manual calibration, starting empty")
		return Curve{}
	}
	if !ok {
		log.Debug("no stored manual calibration")
		return Curve{}
	}
	raw, err := DecodeSnapshot(data)
	if err != nil {
		log.WithError(err).Warn("stored manual calibration is corrupt, starting empty")
		return Curve{}
	}
	curve := pointsFrom(raw)
	log.WithField("points", len(curve)).Info("manual calibration restored")
	return curve
}

// ExportSnapshot serializes the manual curve as indented JSON.
func (s *Service) ExportSnapshot() ([]byte, error) {
	return s.ExportCurve(SourceManual)
}

// ExportCurve serializes any named curve as indented JSON.
func (s *Service) ExportCurve(src Source) ([]byte, error) {
	s.mu.RLock()
	curve := s.curves[src].Clone()
	s.mu.RUnlock()
	return EncodeSnapshot(curve, "  ")
}

// ImportSnapshot replaces the manual curve with the points in data and persists it.
// On a *ParseError the manual curve is left untouched.
func (s *Service) ImportSnapshot(data []byte) (Curve, error) {
	curve, err := ParseSnapshot(data)
	if err != nil {
		s.logger.WithError(err).Warn("calibration import rejected")
		return nil, err
	}
	if _, err := s.ReplaceManual(Raw(curve)); err != nil {
		return curve, err
	}
	return curve, nil
}
