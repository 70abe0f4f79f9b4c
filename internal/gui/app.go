// Main window wiring the estimation session to the live view and controls
package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/algorithms"
	"colorimetric-ph/internal/core"
	"colorimetric-ph/internal/io"
)

// Display supplies the frame shown behind the ROI box.
type Display interface {
	Snapshot() (image.Image, error)
}

// Streamer keeps a Display fed with new frames until ctx is done.
type Streamer interface {
	Stream(ctx context.Context, onFrame func()) error
	Close() error
}

// Options configures NewApplication. Session and Display are required.
type Options struct {
	Session      *core.Session
	Display      Display
	Still        *core.ImageFrame
	Camera       Streamer
	Loader       *io.ImageLoader
	Prefilter    algorithms.Prefilter
	TickInterval time.Duration
}

// Application is the estimator window.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger logrus.FieldLogger
	opts   Options

	canvas      *VideoCanvas
	info        *InfoPanel
	controls    *ControlPanel
	points      *PointsPanel
	menuHandler *MenuHandler
	statusCard  *widget.Card

	cancel  context.CancelFunc
	camDone chan struct{}
}

// NewApplication creates the main window.
func NewApplication(app fyne.App, opts Options, logger logrus.FieldLogger) *Application {
	window := app.NewWindow("pH Estimator")
	window.Resize(fyne.NewSize(1200, 760))
	window.CenterOnScreen()

	if opts.TickInterval <= 0 {
		opts.TickInterval = 150 * time.Millisecond
	}

	a := &Application{
		app:    app,
		window: window,
		logger: logger,
		opts:   opts,
	}

	a.canvas = NewVideoCanvas()
	a.info = NewInfoPanel()
	a.points = NewPointsPanel(opts.Session)
	a.controls = NewControlPanel(window, opts.Session, logger)
	a.menuHandler = NewMenuHandler(window, opts.Session, opts.Still, opts.Loader, opts.Prefilter, logger)

	a.setupLayout()
	a.setupCallbacks()
	return a
}

func (a *Application) setupLayout() {
	a.statusCard = widget.NewCard("Status", "", widget.NewLabel("Ready"))

	right := container.NewVBox(
		a.info.GetContainer(),
		a.controls.GetContainer(),
		a.statusCard,
	)
	side := container.NewVSplit(
		container.NewVScroll(right),
		a.points.GetContainer(),
	)
	side.SetOffset(0.75)

	content := container.NewHSplit(container.NewPadded(a.canvas.GetContainer()), side)
	content.SetOffset(0.62)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) setupCallbacks() {
	onCurveChanged := func(message string) {
		a.points.Refresh()
		a.controls.RefreshMode()
		a.updateStatusMessage(message)
	}
	a.controls.SetCallbacks(onCurveChanged, a.refreshFrame, a.showError)
	a.menuHandler.SetCallbacks(
		func(path string) {
			a.opts.Session.ResetStats()
			a.refreshFrame()
			meta := a.opts.Still.Metadata()
			a.updateStatusMessage(fmt.Sprintf("Loaded: %s (%dx%d)", path, meta.Width, meta.Height))
		},
		onCurveChanged,
		a.showError,
	)
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusCard != nil {
		a.statusCard.SetContent(widget.NewLabel(message))
	}
}

// ShowAndRun starts sampling and blocks until the window closes.
func (a *Application) ShowAndRun() {
	a.logger.Info("Showing estimator window")

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.opts.Session.Start()
	a.refreshFrame()
	go a.runTicks(ctx)
	if a.opts.Camera != nil {
		a.camDone = make(chan struct{})
		go a.runCamera(ctx)
	}

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) runTicks(ctx context.Context) {
	err := a.opts.Session.Run(ctx, a.opts.TickInterval, func(r core.Result) {
		mode := string(a.opts.Session.Mode())
		stats := a.opts.Session.Stats()
		fyne.Do(func() {
			a.info.Update(r, mode, stats)
		})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.WithError(err).Error("Sampling loop stopped")
	}
}

func (a *Application) runCamera(ctx context.Context) {
	defer close(a.camDone)
	err := a.opts.Camera.Stream(ctx, func() {
		fyne.Do(a.refreshFrame)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.WithError(err).Error("Camera stream stopped")
		fyne.Do(func() {
			a.showError("Camera Error", err)
		})
	}
}

// refreshFrame redraws the current frame. Must be called on the fyne goroutine.
func (a *Application) refreshFrame() {
	frame, err := a.opts.Display.Snapshot()
	if err != nil {
		return
	}
	a.canvas.Update(frame, a.opts.Session.CurrentROI())
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	if a.cancel != nil {
		a.cancel()
	}
	if a.opts.Camera != nil {
		if a.camDone != nil {
			<-a.camDone
		}
		if err := a.opts.Camera.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close camera")
		}
	}
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}
