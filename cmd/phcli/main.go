// pH Estimator - headless command line
// Samples a still image or a camera and prints one JSON reading per tick.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/algorithms"
	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/config"
	"colorimetric-ph/internal/core"
	"colorimetric-ph/internal/io"
	"colorimetric-ph/internal/metrics"
	"colorimetric-ph/internal/report"
	"colorimetric-ph/internal/storage"
)

type options struct {
	debug       bool
	configPath  string
	imagePath   string
	camera      int
	ticks       int
	capture     string
	importPath  string
	exportPath  string
	reset       bool
	mode        string
	chartPath   string
	compare     bool
	backend     string
	storagePath string
	diagnostics bool
	describe    bool
}

func main() {
	var o options
	flag.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	flag.StringVar(&o.imagePath, "image", "", "Still image to sample")
	flag.IntVar(&o.camera, "camera", -1, "Camera device to sample")
	flag.IntVar(&o.ticks, "ticks", 1, "Number of readings to take")
	flag.StringVar(&o.capture, "capture", "", "Store the sampled hue against this reference pH")
	flag.StringVar(&o.importPath, "import", "", "Replace the manual curve with a calibration file")
	flag.StringVar(&o.exportPath, "export", "", "Write the manual curve to a calibration file")
	flag.BoolVar(&o.reset, "reset", false, "Clear the manual curve")
	flag.StringVar(&o.mode, "mode", "", "Calibration curve to use (default, manual or a preset)")
	flag.StringVar(&o.chartPath, "chart", "", "Write a calibration chart (.png or .html)")
	flag.BoolVar(&o.compare, "compare", false, "Print nearest-anchor and ordered-scan mappings side by side")
	flag.StringVar(&o.backend, "backend", "", "Calibration storage backend: file, sqlite or memory")
	flag.StringVar(&o.storagePath, "storage", "", "Path for the file or sqlite backend")
	flag.BoolVar(&o.diagnostics, "diagnostics", false, "Attach ROI quality metrics to readings")
	flag.BoolVar(&o.describe, "describe", false, "List the available prefilters and quality metrics, then exit")
	flag.Parse()

	if o.describe {
		if err := describe(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := initLogger(o.debug)
	if err := run(context.Background(), o, logger); err != nil {
		logger.WithError(err).Error("phcli failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, logger *logrus.Logger) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close calibration storage")
		}
	}()

	svc, _ := cfg.NewCalibration(ctx, store, http.DefaultClient, logger.WithField("component", "calibration"))
	if svc.NormalizedCurve(calibration.SourceManual).Usable() {
		svc.SetMode(calibration.SourceManual)
	}

	prefilter, err := algorithms.NewPrefilter(cfg.Prefilter, cfg.PrefilterParams)
	if err != nil {
		return err
	}

	var (
		source core.FrameSource = core.NewImageFrame()
		camera *io.Camera
	)
	switch {
	case o.imagePath != "":
		loader := io.NewImageLoader(logger.WithField("component", "loader"))
		frame, err := loader.LoadFrame(o.imagePath, prefilter)
		if err != nil {
			return err
		}
		source = frame
	case o.camera >= 0:
		camera, err = io.OpenCamera(o.camera, prefilter, logger.WithField("component", "camera"))
		if err != nil {
			return err
		}
		defer camera.Close()
		source = camera
	}

	session := core.NewSession(source, svc, cfg.SessionOptions(), logger.WithField("component", "session"))
	out := json.NewEncoder(os.Stdout)

	if o.reset {
		if err := session.ResetManual(); err != nil {
			return fmt.Errorf("reset calibration: %w", err)
		}
	}

	if o.importPath != "" {
		data, err := os.ReadFile(filepath.Clean(o.importPath))
		if err != nil {
			return fmt.Errorf("read calibration: %w", err)
		}
		curve, active, err := session.Import(data)
		var perr *calibration.ParseError
		if errors.As(err, &perr) {
			return fmt.Errorf("import calibration: %w", err)
		}
		if err != nil {
			logger.WithError(err).Warn("Imported curve kept in memory only")
		}
		logger.WithFields(logrus.Fields{"points": len(curve), "mode": active}).Info("Calibration imported")
	}

	if o.mode != "" {
		if active, ok := session.SetMode(calibration.Source(o.mode)); !ok {
			logger.WithFields(logrus.Fields{"requested": o.mode, "mode": active}).Warn("Curve not usable, using fallback")
		}
	}

	sampling := o.imagePath != "" || camera != nil
	if o.capture != "" {
		if !sampling {
			return errors.New("-capture needs -image or -camera")
		}
		ph, err := strconv.ParseFloat(o.capture, 64)
		if err != nil {
			return fmt.Errorf("invalid -capture value %q: %w", o.capture, err)
		}
		if camera != nil {
			if err := camera.Grab(); err != nil {
				return err
			}
		}
		p, err := session.Capture(ph)
		var verr *calibration.ValidationError
		if errors.As(err, &verr) {
			return err
		}
		if err != nil {
			logger.WithError(err).Warn("Calibration point kept in memory only")
		}
		if err := out.Encode(p); err != nil {
			return err
		}
	}

	if sampling {
		if err := readings(session, camera, o.ticks, cfg.GetTickInterval(), out); err != nil {
			return err
		}
		stats := session.Stats()
		logger.WithFields(logrus.Fields{
			"ticks":      stats.Ticks,
			"conclusive": stats.Conclusive,
			"mean_ms":    stats.MeanMillis,
			"p95_ms":     stats.P95Millis,
			"frames":     cameraFrames(camera),
		}).Info("Sampling finished")
	}

	if o.exportPath != "" {
		data, err := session.Export()
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.exportPath, data, 0o644); err != nil {
			return fmt.Errorf("write calibration: %w", err)
		}
		logger.WithField("filepath", o.exportPath).Info("Calibration exported")
	}

	if o.chartPath != "" {
		if err := writeChart(o.chartPath, report.CurveSeries(svc)); err != nil {
			return err
		}
		logger.WithField("filepath", o.chartPath).Info("Chart written")
	}

	if o.compare {
		return compareMappings(os.Stdout, session.Mode(), svc.ActiveCurve())
	}
	return nil
}

func loadConfig(o options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.backend != "" {
		cfg.Storage.Backend = o.backend
	}
	if o.storagePath != "" {
		cfg.Storage.Path = o.storagePath
	}
	if o.diagnostics {
		cfg.Diagnostics = true
	}
	if o.ticks < 0 {
		return nil, fmt.Errorf("-ticks must be non-negative, got %d", o.ticks)
	}
	return cfg, cfg.Validate()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	backend := cfg.Storage.Backend
	if backend == storage.BackendPrefs {
		backend = storage.BackendFile
	}
	path := cfg.Storage.Path
	if path == "" && backend == storage.BackendFile {
		path = storage.DefaultFilePath()
	}
	return storage.Open(backend, path)
}

// readings prints n ticks, grabbing a fresh camera frame before each one.
func readings(session *core.Session, camera *io.Camera, n int, interval time.Duration, out *json.Encoder) error {
	session.Start()
	for i := 0; i < n; i++ {
		if camera != nil {
			if err := camera.Grab(); err != nil {
				return err
			}
		}
		r, _ := session.Tick()
		if err := out.Encode(r); err != nil {
			return err
		}
		if camera != nil && i < n-1 {
			time.Sleep(interval)
		}
	}
	return nil
}

func cameraFrames(camera *io.Camera) int64 {
	if camera == nil {
		return 0
	}
	return camera.Frames()
}

// describe prints the prefilter parameters and quality metrics.
func describe(w *os.File) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFILTER\tPARAMETER\tRANGE\tDEFAULT\tDESCRIPTION")
	for _, name := range algorithms.Names() {
		algorithm, _ := algorithms.Get(name)
		fmt.Fprintf(tw, "%s\t\t\t\t%s\n", name, algorithm.GetDescription())
		for _, p := range algorithm.GetParameterInfo() {
			fmt.Fprintf(tw, "\t%s\t%v..%v\t%v\t%s\n", p.Name, p.Min, p.Max, p.Default, p.Description)
		}
	}
	fmt.Fprintln(tw)

	info := metrics.NewEvaluator().GetMetricInfo()
	names := make([]string, 0, len(info))
	for name := range info {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(tw, "METRIC\tRANGE\tHIGHER IS BETTER\tDESCRIPTION\t")
	for _, name := range names {
		m := info[name]
		fmt.Fprintf(tw, "%s\t%g..%g\t%t\t%s\t\n", name, m.Range[0], m.Range[1], m.HigherBetter, m.Description)
	}
	return tw.Flush()
}

func writeChart(path string, series []report.Series) error {
	if strings.EqualFold(filepath.Ext(path), ".html") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := report.RenderHTML(f, series); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return report.SavePNG(path, series)
}

func compareMappings(w *os.File, mode calibration.Source, curve calibration.Curve) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "curve: %s\t\t\t\t\n", mode)
	fmt.Fprintln(tw, "hue\tnearest\tordered\tdelta\t")
	for hue := 0; hue < 360; hue += 10 {
		canonical := calibration.ClampPH(calibration.MapHueToPH(float64(hue), curve))
		legacy := calibration.ClampPH(calibration.MapOrderedScan(float64(hue), curve))
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%+.2f\t\n", hue, canonical, legacy, canonical-legacy)
	}
	return tw.Flush()
}

// initLogger writes to stderr so stdout carries only readings.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

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
