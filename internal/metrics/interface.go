// Quality metrics for a sampled region of interest
package metrics

import (
	"fmt"
	"sort"

	"colorimetric-ph/internal/color"
)

// Sample is one ROI read: the pixel count considered and the pixels that passed
// the saturation and brightness gates.
type Sample struct {
	Total      int
	Qualifying []color.HSV
}

// Metric defines the interface for ROI quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(sample Sample) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)

	// IsHigherBetter returns true if higher values indicate a more trustworthy reading
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates a new metrics evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.RegisterDefaultMetrics()
	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("coverage", NewCoverage())
	e.Register("mean_saturation", NewMeanSaturation())
	e.Register("mean_value", NewMeanValue())
	e.Register("hue_concentration", NewHueConcentration())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names in sorted order.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, sample Sample) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(sample)
}

// CalculateAll calculates all registered metrics. Metrics that fail are omitted.
func (e *Evaluator) CalculateAll(sample Sample) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(sample); err == nil {
			results[name] = value
		}
	}
	return results
}

// GetMetricInfo returns information about all metrics
func (e *Evaluator) GetMetricInfo() map[string]MetricInfo {
	info := make(map[string]MetricInfo)
	for name, metric := range e.metrics {
		lo, hi := metric.GetRange()
		info[name] = MetricInfo{
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Range:        [2]float64{lo, hi},
			HigherBetter: metric.IsHigherBetter(),
		}
	}
	return info
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Name         string
	Description  string
	Range        [2]float64 // [min, max]
	HigherBetter bool
}

// QualityReport summarises how trustworthy a reading is.
type QualityReport struct {
	OverallScore float64            `json:"overall_score"`
	Metrics      map[string]float64 `json:"metrics"`
	QualityLevel string             `json:"quality_level"` // "good", "fair", "poor"
	Issues       []string           `json:"issues"`
}

// GenerateReport calculates every metric and grades the sample.
func (e *Evaluator) GenerateReport(sample Sample) QualityReport {
	metrics := e.CalculateAll(sample)
	score := e.calculateOverallScore(metrics)

	report := QualityReport{
		OverallScore: score,
		Metrics:      metrics,
		Issues:       make([]string, 0),
	}
	switch {
	case score >= 75:
		report.QualityLevel = "good"
	case score >= 50:
		report.QualityLevel = "fair"
	default:
		report.QualityLevel = "poor"
	}

	if v, ok := metrics["coverage"]; ok && v < 0.25 {
		report.Issues = append(report.Issues, "Few pixels in the region are colored; move the region onto the strip")
	}
	if v, ok := metrics["mean_value"]; ok && v < 0.3 {
		report.Issues = append(report.Issues, "Region is dark; add light or enable white balance")
	}
	if v, ok := metrics["hue_concentration"]; ok && v < 0.5 {
		report.Issues = append(report.Issues, "Hues in the region disagree; shrink the region")
	}
	return report
}

// calculateOverallScore averages the normalised metrics as a percentage
func (e *Evaluator) calculateOverallScore(metrics map[string]float64) float64 {
	if len(metrics) == 0 {
		return 0
	}
	sum := 0.0
	for name, value := range metrics {
		sum += e.normalizeMetric(name, value)
	}
	return sum / float64(len(metrics)) * 100
}

// normalizeMetric normalizes a metric value to 0-1 range
func (e *Evaluator) normalizeMetric(name string, value float64) float64 {
	metric, exists := e.metrics[name]
	if !exists {
		return 0
	}

	lo, hi := metric.GetRange()
	if value < lo {
		value = lo
	}
	if value > hi {
		value = hi
	}
	if hi == lo {
		return 1.0
	}

	normalized := (value - lo) / (hi - lo)
	if !metric.IsHigherBetter() {
		normalized = 1.0 - normalized
	}
	return normalized
}
