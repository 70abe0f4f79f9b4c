// Calibration file format: a JSON array of {"hue": number, "pH": number}
package calibration

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawPoint is one decoded calibration entry before validation.
// A nil field means the entry lacked that value or it could not be coerced.
type RawPoint struct {
	Hue *float64
	PH  *float64
}

// Complete reports whether both fields are present.
func (r RawPoint) Complete() bool {
	return r.Hue != nil && r.PH != nil
}

// Raw converts validated points back into raw entries.
func Raw(c Curve) []RawPoint {
	out := make([]RawPoint, len(c))
	for i := range c {
		hue, ph := c[i].Hue, c[i].PH
		out[i] = RawPoint{Hue: &hue, PH: &ph}
	}
	return out
}

// pointsFrom keeps complete entries and normalizes them. Incomplete entries are dropped.
func pointsFrom(raw []RawPoint) Curve {
	out := make(Curve, 0, len(raw))
	for _, r := range raw {
		if !r.Complete() {
			continue
		}
		out = append(out, NewPoint(*r.Hue, *r.PH))
	}
	return out
}

// DecodeSnapshot parses calibration JSON into raw entries, one per array element.
// Extra fields are ignored and numeric strings are coerced. Data that is not a
// JSON array yields a *ParseError.
func DecodeSnapshot(data []byte) ([]RawPoint, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return nil, &ParseError{Reason: "calibration data must be a JSON array"}
		}
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if items == nil {
		return nil, &ParseError{Reason: "calibration data must be a JSON array"}
	}

	out := make([]RawPoint, len(items))
	for i, item := range items {
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		out[i] = RawPoint{Hue: coerce(obj["hue"]), PH: coerce(obj["pH"])}
	}
	return out, nil
}

// ParseSnapshot decodes calibration JSON into normalized points. A non-empty array
// without a single complete entry is rejected.
func ParseSnapshot(data []byte) (Curve, error) {
	raw, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	curve := pointsFrom(raw)
	if len(raw) > 0 && len(curve) == 0 {
		return nil, &ParseError{Reason: "no entry has both numeric hue and pH"}
	}
	return curve, nil
}

// EncodeSnapshot serializes a curve in the calibration file format.
// An indent of "" gives compact output.
func EncodeSnapshot(c Curve, indent string) ([]byte, error) {
	if c == nil {
		c = Curve{}
	}
	if indent == "" {
		return json.Marshal(c)
	}
	return json.MarshalIndent(c, "", indent)
}

func coerce(v interface{}) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
