// Denoise prefilters applied to camera frames before sampling
package algorithms

import (
	"fmt"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// Algorithm defines the interface for frame prefilters
type Algorithm interface {
	Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error)
	GetDefaultParams() map[string]interface{}
	GetName() string
	GetDescription() string
	Validate(params map[string]interface{}) error
	GetParameterInfo() []ParameterInfo
}

// ParameterInfo describes a parameter for UI generation
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "float"
	Min         interface{} `json:"min,omitempty"`
	Max         interface{} `json:"max,omitempty"`
	Default     interface{} `json:"default"`
	Description string      `json:"description"`
}

var algorithms = make(map[string]Algorithm)

// Register adds an algorithm under name.
func Register(name string, algorithm Algorithm) {
	algorithms[name] = algorithm
}

// Get looks an algorithm up by name.
func Get(name string) (Algorithm, bool) {
	algorithm, exists := algorithms[name]
	return algorithm, exists
}

// Apply runs the named algorithm. The caller owns the returned Mat.
func Apply(name string, input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	algorithm, exists := algorithms[name]
	if !exists {
		return gocv.NewMat(), fmt.Errorf("algorithm not found: %s", name)
	}
	return algorithm.Apply(input, params)
}

// ValidateParameters checks params against the named algorithm.
func ValidateParameters(name string, params map[string]interface{}) error {
	algorithm, exists := algorithms[name]
	if !exists {
		return fmt.Errorf("algorithm not found: %s", name)
	}
	return algorithm.Validate(params)
}

// IsValidAlgorithm reports whether name is registered.
func IsValidAlgorithm(name string) bool {
	_, exists := algorithms[name]
	return exists
}

// Names returns the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prefilter is a configured algorithm ready to run on every frame.
// The zero value and the name "none" pass frames through untouched.
type Prefilter struct {
	Name   string
	Params map[string]interface{}
}

// NewPrefilter builds a prefilter from the algorithm's default parameters with
// overrides applied on top. The merged set must validate.
func NewPrefilter(name string, overrides map[string]interface{}) (Prefilter, error) {
	if name == "" || name == "none" {
		return Prefilter{}, nil
	}
	if !IsValidAlgorithm(name) {
		return Prefilter{}, fmt.Errorf("unknown prefilter %q, have %s", name, strings.Join(Names(), ", "))
	}
	algorithm, _ := Get(name)
	params := algorithm.GetDefaultParams()
	for key, value := range overrides {
		params[key] = value
	}
	if err := ValidateParameters(name, params); err != nil {
		return Prefilter{}, fmt.Errorf("prefilter %s: %w", name, err)
	}
	return Prefilter{Name: name, Params: params}, nil
}

// Enabled reports whether the prefilter does anything.
func (p Prefilter) Enabled() bool {
	return p.Name != "" && p.Name != "none"
}

// Run filters input. When the prefilter is disabled it returns a clone, so the
// caller always owns and closes the result.
func (p Prefilter) Run(input gocv.Mat) (gocv.Mat, error) {
	if !p.Enabled() {
		return input.Clone(), nil
	}
	return Apply(p.Name, input, p.Params)
}

// intParam reads a numeric parameter as an int.
func intParam(params map[string]interface{}, key string, def int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return def
}

// floatParam reads a numeric parameter as a float64.
func floatParam(params map[string]interface{}, key string, def float64) float64 {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return def
}

func checkRange(params map[string]interface{}, key string, lo, hi float64) error {
	if _, ok := params[key]; !ok {
		return nil
	}
	v := floatParam(params, key, lo)
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %g and %g", key, lo, hi)
	}
	return nil
}

func init() {
	Register("gaussian", NewGaussianFilter())
	Register("median", NewMedianFilter())
	Register("bilateral", NewBilateralFilter())
}
