// pH Estimator - desktop application
// Samples the center of a live camera frame and maps the indicator hue to pH.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/algorithms"
	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/config"
	"colorimetric-ph/internal/core"
	"colorimetric-ph/internal/gui"
	"colorimetric-ph/internal/io"
	"colorimetric-ph/internal/storage"
)

const (
	AppName    = "pH Estimator"
	AppID      = "com.colorimetric.ph-estimator"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a JSON config file")
	cameraDevice := flag.Int("camera", -1, "Camera device index (overrides config)")
	imagePath := flag.String("image", "", "Sample a still image instead of the camera")
	backend := flag.String("backend", "", "Calibration storage backend: prefs, file, sqlite or memory")
	storagePath := flag.String("storage", "", "Path for the file or sqlite backend")
	diagnostics := flag.Bool("diagnostics", false, "Attach ROI quality metrics to every reading")
	flag.Parse()

	logger := initLogger(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
	}).Info("Starting pH Estimator")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load config")
		}
		cfg = loaded
	}
	if *cameraDevice >= 0 {
		cfg.CameraDevice = *cameraDevice
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *diagnostics {
		cfg.Diagnostics = true
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.ColorPaletteIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	kv, closeKV := openStore(myApp.Preferences(), cfg, logger)
	defer closeKV()

	svc, _ := cfg.NewCalibration(context.Background(), kv, http.DefaultClient, logger.WithField("component", "calibration"))

	prefilter, err := algorithms.NewPrefilter(cfg.Prefilter, cfg.PrefilterParams)
	if err != nil {
		logger.WithError(err).Fatal("Invalid prefilter")
	}

	opts := gui.Options{
		Prefilter:    prefilter,
		TickInterval: cfg.GetTickInterval(),
		Loader:       io.NewImageLoader(logger.WithField("component", "loader")),
	}
	var source core.FrameSource

	if *imagePath == "" {
		camera, err := io.OpenCamera(cfg.CameraDevice, prefilter, logger.WithField("component", "camera"))
		if err == nil {
			source = camera
			opts.Display = camera
			opts.Camera = camera
		} else {
			logger.WithError(err).Warn("Camera unavailable, falling back to still images")
		}
	}
	if source == nil {
		still := core.NewImageFrame()
		if *imagePath != "" {
			frame, err := opts.Loader.LoadFrame(*imagePath, prefilter)
			if err != nil {
				logger.WithError(err).Fatal("Failed to load image")
			}
			still = frame
		}
		source = still
		opts.Display = still
		opts.Still = still
	}

	session := core.NewSession(source, svc, cfg.SessionOptions(), logger.WithField("component", "session"))
	if svc.NormalizedCurve(calibration.SourceManual).Usable() {
		session.SetMode(calibration.SourceManual)
	}
	opts.Session = session

	mainApp := gui.NewApplication(myApp, opts, logger)
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
}

// openStore opens the configured calibration backend. The fyne preferences
// backend is closed by the app itself.
func openStore(prefs fyne.Preferences, cfg *config.Config, logger *logrus.Logger) (calibration.KV, func()) {
	if cfg.Storage.Backend == storage.BackendPrefs {
		return storage.NewPreferences(prefs), func() {}
	}

	path := cfg.Storage.Path
	if path == "" && cfg.Storage.Backend != storage.BackendMemory {
		path = storage.DefaultFilePath()
	}
	store, err := storage.Open(cfg.Storage.Backend, path)
	if err != nil {
		logger.WithError(err).Warn("Calibration storage unavailable, keeping points in memory")
		return storage.NewMemory(), func() {}
	}
	logger.WithFields(logrus.Fields{
		"backend": cfg.Storage.Backend,
		"path":    path,
	}).Info("Calibration storage opened")

	return store, func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close calibration storage")
		}
	}
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
