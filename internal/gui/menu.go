// Menu handler for file and calibration actions
package gui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/algorithms"
	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/core"
	"colorimetric-ph/internal/io"
	"colorimetric-ph/internal/report"
)

// DefaultExportName is the file name offered when exporting the manual curve.
const DefaultExportName = "ph_manual_calibration.json"

// MenuHandler handles menu actions
type MenuHandler struct {
	window    fyne.Window
	session   *core.Session
	still     *core.ImageFrame
	loader    *io.ImageLoader
	prefilter algorithms.Prefilter
	logger    logrus.FieldLogger

	onImageLoaded  func(string)
	onCurveChanged func(string)
	onError        func(string, error)
}

// NewMenuHandler creates the menu. still and loader may be nil when the
// session samples a camera.
func NewMenuHandler(window fyne.Window, session *core.Session, still *core.ImageFrame, loader *io.ImageLoader, prefilter algorithms.Prefilter, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window:    window,
		session:   session,
		still:     still,
		loader:    loader,
		prefilter: prefilter,
		logger:    logger,
	}
}

// GetMainMenu builds the window menu.
func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	openItem := fyne.NewMenuItem("Open Image...", mh.openImage)
	openItem.Disabled = mh.still == nil || mh.loader == nil

	fileMenu := fyne.NewMenu("File",
		openItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Calibration...", mh.importCalibration),
		fyne.NewMenuItem("Export Calibration...", mh.exportCalibration),
		fyne.NewMenuItem("Export Chart...", mh.exportChart),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

// SetCallbacks registers the handlers for image, curve and error events.
func (mh *MenuHandler) SetCallbacks(onImageLoaded, onCurveChanged func(string), onError func(string, error)) {
	mh.onImageLoaded = onImageLoaded
	mh.onCurveChanged = onCurveChanged
	mh.onError = onError
}

func (mh *MenuHandler) openImage() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		path := reader.URI().Path()
		mh.logger.WithField("filepath", path).Info("Loading selected image")

		frame, err := mh.loader.LoadFrame(path, mh.prefilter)
		if err != nil {
			mh.showError("Failed to Load Image", err)
			return
		}
		if err := mh.still.SetImage(frame.Image(), path); err != nil {
			mh.showError("Invalid Image", err)
			return
		}
		if mh.onImageLoaded != nil {
			mh.onImageLoaded(path)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.GetSupportedFormats()))
	fileDialog.Show()
}

func (mh *MenuHandler) importCalibration() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(reader); err != nil {
			mh.showError("Failed to Read Calibration", err)
			return
		}

		curve, active, err := mh.session.Import(buf.Bytes())
		var perr *calibration.ParseError
		if errors.As(err, &perr) {
			mh.showError("Invalid Calibration File", err)
			return
		}
		if err != nil {
			mh.showError("Calibration Not Saved", err)
		}
		mh.logger.WithFields(logrus.Fields{
			"filepath": reader.URI().Path(),
			"points":   len(curve),
			"mode":     active,
		}).Info("Calibration imported")
		mh.curveChanged(fmt.Sprintf("Imported %d points, using %s", len(curve), active))
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fileDialog.Show()
}

func (mh *MenuHandler) exportCalibration() {
	data, err := mh.session.Export()
	if err != nil {
		mh.showError("Export Failed", err)
		return
	}

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()

		if _, err := writer.Write(data); err != nil {
			mh.showError("Export Failed", err)
			return
		}
		mh.logger.WithField("filepath", writer.URI().Path()).Info("Calibration exported")
		mh.curveChanged(fmt.Sprintf("Exported to %s", writer.URI().Name()))
	}, mh.window)

	fileDialog.SetFileName(DefaultExportName)
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fileDialog.Show()
}

func (mh *MenuHandler) exportChart() {
	series := report.CurveSeries(mh.session.Calibration())

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()

		if strings.EqualFold(writer.URI().Extension(), ".html") {
			err = report.RenderHTML(writer, series)
		} else {
			err = report.WritePNG(writer, series)
		}
		if err != nil {
			mh.showError("Chart Export Failed", err)
			return
		}
		mh.logger.WithField("filepath", writer.URI().Path()).Info("Chart exported")
		dialog.ShowInformation("Chart Exported", writer.URI().Path(), mh.window)
	}, mh.window)

	fileDialog.SetFileName("ph_calibration_curves.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".html"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("pH Estimator"),
		widget.NewSeparator(),
		widget.NewLabel("Estimates pH from the hue of an indicator solution"),
		widget.NewLabel("sampled in the center of the camera frame."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6, and OpenCV 4.11"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 240))
	aboutDialog.Show()
}

func (mh *MenuHandler) curveChanged(message string) {
	if mh.onCurveChanged != nil {
		mh.onCurveChanged(message)
	}
}

func (mh *MenuHandler) showError(title string, err error) {
	if mh.onError != nil {
		mh.onError(title, err)
		return
	}
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}
