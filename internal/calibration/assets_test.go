package calibration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedAssets(t *testing.T) {
	t.Parallel()

	svc := NewService(nil)
	failures := svc.LoadAssets(context.Background(), EmbeddedAssets(), SourceDefault, PresetRedCabbage)
	assert.Empty(t, failures)

	assert.Empty(t, cmp.Diff(DefaultCurve(), svc.NormalizedCurve(SourceDefault)))
	cabbage := svc.NormalizedCurve(PresetRedCabbage)
	require.Len(t, cabbage, 7)
	assert.Contains(t, svc.Sources(), PresetRedCabbage)

	active, ok := svc.SetMode(PresetRedCabbage)
	assert.True(t, ok)
	assert.Equal(t, PresetRedCabbage, active)
	assert.InDelta(t, 2.0, svc.MapHue(345), 1e-9)
}

func TestDirAssetsFailuresAreNotFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte(`[{"hue": 5, "pH": 2}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"hue": 5}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "litmus.json"), []byte(`[{"hue": 0, "pH": 4.5}, {"hue": 240, "pH": 8.3}]`), 0o644))

	svc := NewService(nil)
	failures := svc.LoadAssets(context.Background(), DirAssets(dir), SourceDefault, "broken", "absent", "litmus", SourceManual)

	assert.Contains(t, failures, SourceDefault, "a one-point default is rejected")
	assert.Contains(t, failures, Source("broken"))
	assert.Contains(t, failures, Source("absent"))
	assert.Contains(t, failures, SourceManual)
	assert.NotContains(t, failures, Source("litmus"))

	var perr *ParseError
	assert.True(t, errors.As(failures["broken"], &perr))

	assert.Empty(t, cmp.Diff(DefaultCurve(), svc.NormalizedCurve(SourceDefault)), "built-in default survives")
	assert.Empty(t, svc.NormalizedCurve("broken"))

	active, ok := svc.SetMode("broken")
	assert.False(t, ok)
	assert.Equal(t, SourceDefault, active)
	assert.Len(t, svc.NormalizedCurve("litmus"), 2)
}

func TestHTTPAssets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/curves/universal.json":
			_, _ = w.Write([]byte(`[{"hue": 0, "pH": 1}, {"hue": 120, "pH": 7}, {"hue": 270, "pH": 13}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := HTTPAssets{BaseURL: srv.URL + "/curves/", Client: srv.Client()}
	data, err := src.Fetch(context.Background(), "universal")
	require.NoError(t, err)
	curve, err := ParseSnapshot(data)
	require.NoError(t, err)
	assert.Len(t, curve, 3)

	_, err = src.Fetch(context.Background(), "missing")
	assert.Error(t, err)

	_, err = src.Fetch(context.Background(), "../etc/passwd")
	assert.Error(t, err)

	svc := NewService(nil)
	failures := svc.LoadAssets(context.Background(), src, "universal", "missing")
	assert.Len(t, failures, 1)
	assert.Len(t, svc.NormalizedCurve("universal"), 3)
}

func TestFSAssetsHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EmbeddedAssets().Fetch(ctx, "default")
	assert.ErrorIs(t, err, context.Canceled)
}
