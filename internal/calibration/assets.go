// Calibration asset sources loaded at startup
package calibration

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PresetRedCabbage is the embedded anthocyanin (red cabbage extract) indicator curve.
const PresetRedCabbage Source = "red-cabbage"

//go:embed assets/*.json
var embeddedAssets embed.FS

// maxAssetSize caps a single calibration asset.
const maxAssetSize = 1 << 20

// AssetSource supplies calibration curves by name as JSON arrays of {hue, pH}.
type AssetSource interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FSAssets reads "<name>.json" from a file system.
type FSAssets struct {
	FS fs.FS
}

// Fetch reads the named asset.
func (a FSAssets) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkAssetName(name); err != nil {
		return nil, err
	}
	f, err := a.FS.Open(name + ".json")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

// EmbeddedAssets returns the curves compiled into the binary.
func EmbeddedAssets() FSAssets {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic(err)
	}
	return FSAssets{FS: sub}
}

// DirAssets reads "<name>.json" files from a directory on disk.
func DirAssets(dir string) FSAssets {
	return FSAssets{FS: os.DirFS(filepath.Clean(dir))}
}

// HTTPDoer is the subset of *http.Client used by HTTPAssets.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPAssets fetches "<BaseURL>/<name>.json".
type HTTPAssets struct {
	BaseURL string
	Client  HTTPDoer
	Timeout time.Duration
}

// Fetch downloads the named asset.
func (a HTTPAssets) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := checkAssetName(name); err != nil {
		return nil, err
	}
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimRight(a.BaseURL, "/") + "/" + name + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	return readLimited(resp.Body)
}

func checkAssetName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid asset name %q", name)
	}
	return nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("calibration asset larger than %d bytes", maxAssetSize)
	}
	return data, nil
}

// LoadAssets fetches each named curve from src and installs it. The manual curve
// is never loaded this way. Failures are logged and returned per name; a failed
// preset stays empty and the default keeps its built-in points.
func (s *Service) LoadAssets(ctx context.Context, src AssetSource, names ...Source) map[Source]error {
	failures := make(map[Source]error)
	for _, name := range names {
		log := s.logger.WithField("source", name)
		if err := s.loadAsset(ctx, src, name); err != nil {
			log.WithError(err).Warn("calibration asset not loaded")
			failures[name] = err
			continue
		}
		log.Info("calibration asset loaded")
	}
	return failures
}

func (s *Service) loadAsset(ctx context.Context, src AssetSource, name Source) error {
	if name == SourceManual {
		return fmt.Errorf("%q cannot be loaded from assets", name)
	}

	data, err := src.Fetch(ctx, string(name))
	if err == nil {
		var curve Curve
		curve, err = ParseSnapshot(data)
		if err == nil && name == SourceDefault && !curve.Usable() {
			err = fmt.Errorf("default curve has %d points, need %d", len(curve), MinUsablePoints)
		}
		if err == nil {
			_, err = s.ReplacePreset(name, Raw(curve))
			return err
		}
	}

	if name != SourceDefault {
		s.mu.Lock()
		if _, ok := s.curves[name]; !ok {
			s.curves[name] = Curve{}
		}
		s.mu.Unlock()
	}
	return err
}
