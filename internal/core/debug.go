// Tick timing and outcome tracking for the estimation loop
package core

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

const tickHistory = 256

// TickSummary aggregates recent ticks.
type TickSummary struct {
	Ticks        int     `json:"ticks"`
	Conclusive   int     `json:"conclusive"`
	MeanMillis   float64 `json:"mean_ms"`
	P95Millis    float64 `json:"p95_ms"`
	LastDuration time.Duration
}

// TickDebugger records how long each tick took and whether it produced a pH.
type TickDebugger struct {
	mu     sync.Mutex
	logger logrus.FieldLogger

	durations  []float64 // ms, ring buffer
	next       int
	ticks      int
	conclusive int
	last       time.Duration
}

// NewTickDebugger creates a tick debugger logging at debug level.
func NewTickDebugger(logger logrus.FieldLogger) *TickDebugger {
	return &TickDebugger{
		logger:    logger,
		durations: make([]float64, 0, tickHistory),
	}
}

// Record stores one tick.
func (d *TickDebugger) Record(r Result, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ms := float64(elapsed) / float64(time.Millisecond)
	if len(d.durations) < tickHistory {
		d.durations = append(d.durations, ms)
	} else {
		d.durations[d.next] = ms
	}
	d.next = (d.next + 1) % tickHistory
	d.ticks++
	if r.Conclusive() {
		d.conclusive++
	}
	d.last = elapsed

	d.logger.WithFields(logrus.Fields{
		"ph":          r.PH,
		"hue":         r.MeanHue,
		"count":       r.Count,
		"duration_ms": ms,
	}).Debug("tick")
}

// Summary returns totals and timing over the recent ticks.
func (d *TickDebugger) Summary() TickSummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := TickSummary{
		Ticks:        d.ticks,
		Conclusive:   d.conclusive,
		LastDuration: d.last,
	}
	if len(d.durations) == 0 {
		return s
	}
	sorted := append([]float64(nil), d.durations...)
	sort.Float64s(sorted)
	s.MeanMillis = stat.Mean(sorted, nil)
	s.P95Millis = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return s
}

// Reset clears all recorded ticks.
func (d *TickDebugger) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.durations = d.durations[:0]
	d.next = 0
	d.ticks = 0
	d.conclusive = 0
	d.last = 0
}
