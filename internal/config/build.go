package config

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/color"
	"colorimetric-ph/internal/core"
)

// SamplerOptions returns the pixel gating thresholds.
func (c *Config) SamplerOptions() color.Options {
	return color.Options{
		MinSaturation: c.MinSaturation,
		MinValue:      c.MinValue,
		MinAlpha:      uint8(c.MinAlpha),
		MinPixels:     c.MinPixels,
	}
}

// SessionOptions returns the estimation session settings.
func (c *Config) SessionOptions() core.Options {
	return core.Options{
		ROISize:         c.ROISize,
		WhiteBalance:    c.WhiteBalance,
		ReportMinPixels: c.ReportMinPixels,
		Sampler:         c.SamplerOptions(),
		Diagnostics:     c.Diagnostics,
	}
}

// AssetSource picks where calibration assets come from: assets_dir, then
// assets_url, then the embedded set.
func (c *Config) AssetSource(client *http.Client) calibration.AssetSource {
	switch {
	case c.AssetsDir != "":
		return calibration.DirAssets(c.AssetsDir)
	case c.AssetsURL != "":
		var doer calibration.HTTPDoer
		if client != nil {
			doer = client
		}
		return calibration.HTTPAssets{BaseURL: c.AssetsURL, Client: doer, Timeout: 10 * time.Second}
	default:
		return calibration.EmbeddedAssets()
	}
}

// AssetNames lists the curves to load at startup: default followed by the presets.
func (c *Config) AssetNames() []calibration.Source {
	names := []calibration.Source{calibration.SourceDefault}
	for _, p := range c.Presets {
		if p == "" || p == string(calibration.SourceDefault) || p == string(calibration.SourceManual) {
			continue
		}
		names = append(names, calibration.Source(p))
	}
	return names
}

// NewCalibration builds the calibration service over kv, loads its assets and
// restores the manual curve. Asset failures are logged by the service and
// returned for reporting.
func (c *Config) NewCalibration(ctx context.Context, kv calibration.KV, client *http.Client, logger logrus.FieldLogger) (*calibration.Service, map[calibration.Source]error) {
	svc := calibration.NewService(kv,
		calibration.WithLogger(logger),
		calibration.WithStorageKey(c.StorageKey),
	)
	failures := svc.LoadAssets(ctx, c.AssetSource(client), c.AssetNames()...)
	svc.Restore()
	return svc, failures
}
