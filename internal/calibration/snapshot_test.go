package calibration

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortByHue(a, b Point) bool { return a.Hue < b.Hue }

func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	raw, err := DecodeSnapshot([]byte(`[
		{"hue": 10, "pH": 3, "note": "extra fields are ignored"},
		{"hue": "20.5", "pH": " 4 "},
		{"hue": 30},
		{"pH": 5},
		{"hue": "abc", "pH": 6},
		42,
		null
	]`))
	require.NoError(t, err)
	require.Len(t, raw, 7)

	assert.True(t, raw[0].Complete())
	assert.Equal(t, 10.0, *raw[0].Hue)
	assert.True(t, raw[1].Complete())
	assert.Equal(t, 20.5, *raw[1].Hue)
	assert.Equal(t, 4.0, *raw[1].PH)
	for _, r := range raw[2:] {
		assert.False(t, r.Complete())
	}
}

func TestDecodeSnapshotRejectsNonArrays(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`{"hue": 1, "pH": 2}`, `"text"`, `12`, `null`, `not json`, ``} {
		_, err := DecodeSnapshot([]byte(in))
		var perr *ParseError
		assert.True(t, errors.As(err, &perr), "input %q", in)
	}
}

func TestParseSnapshot(t *testing.T) {
	t.Parallel()

	curve, err := ParseSnapshot([]byte(`[{"hue": -30, "pH": 20}, {"hue": 400, "pH": 0.5}, {"pH": 3}]`))
	require.NoError(t, err)
	want := Curve{{Hue: 330, PH: 14}, {Hue: 40, PH: 1}}
	assert.Empty(t, cmp.Diff(want, curve, cmpopts.EquateApprox(0, 1e-9)))

	empty, err := ParseSnapshot([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseSnapshot([]byte(`[{"hue": 1}, {"color": "red"}]`))
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	curve := Curve{{Hue: 210, PH: 11}, {Hue: 12.25, PH: 3.5}, {Hue: 359.5, PH: 1.2}, {Hue: 95, PH: 7}}
	for _, indent := range []string{"", "  "} {
		data, err := EncodeSnapshot(curve, indent)
		require.NoError(t, err)

		got, err := ParseSnapshot(data)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(curve, got, cmpopts.SortSlices(sortByHue)))
	}

	data, err := EncodeSnapshot(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
