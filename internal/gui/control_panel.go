// Sampling and calibration controls
package gui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/core"
)

// ControlPanel holds the ROI, white balance, mode and capture controls.
type ControlPanel struct {
	window  fyne.Window
	session *core.Session
	logger  logrus.FieldLogger

	container *fyne.Container

	roiLabel    *widget.Label
	pauseButton *widget.Button
	wbCheck     *widget.Check
	modeSelect  *widget.Select
	phEntry     *widget.Entry

	// set while the mode select is being changed from code
	syncing bool

	onCurveChanged func(string)
	onROIChanged   func()
	onError        func(string, error)
}

// NewControlPanel creates the controls for session.
func NewControlPanel(window fyne.Window, session *core.Session, logger logrus.FieldLogger) *ControlPanel {
	cp := &ControlPanel{
		window:  window,
		session: session,
		logger:  logger,
	}
	cp.buildUI()
	return cp
}

func (cp *ControlPanel) buildUI() {
	cp.roiLabel = widget.NewLabel(cp.roiText())
	shrink := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() {
		cp.session.ShrinkROI()
		cp.roiChanged()
	})
	grow := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		cp.session.GrowROI()
		cp.roiChanged()
	})

	cp.pauseButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), cp.togglePause)

	cp.wbCheck = widget.NewCheck("Gray-world white balance", func(on bool) {
		cp.session.SetWhiteBalance(on)
		cp.logger.WithField("white_balance", on).Info("White balance changed")
	})
	cp.wbCheck.SetChecked(cp.session.WhiteBalance())

	cp.modeSelect = widget.NewSelect(cp.sourceNames(), cp.selectMode)
	cp.syncing = true
	cp.modeSelect.SetSelected(string(cp.session.Mode()))
	cp.syncing = false

	cp.phEntry = widget.NewEntry()
	cp.phEntry.SetPlaceHolder("Reference pH (1-14)")
	cp.phEntry.OnSubmitted = func(string) { cp.capture() }
	captureButton := widget.NewButtonWithIcon("Capture", theme.ConfirmIcon(), cp.capture)

	resetButton := widget.NewButtonWithIcon("Reset", theme.DeleteIcon(), cp.confirmReset)
	reloadButton := widget.NewButtonWithIcon("Reload", theme.ViewRefreshIcon(), cp.reload)

	cp.container = container.NewVBox(
		widget.NewCard("Sampling", "", container.NewVBox(
			container.NewBorder(nil, nil, shrink, grow, cp.roiLabel),
			cp.wbCheck,
			cp.pauseButton,
		)),
		widget.NewCard("Calibration", "", container.NewVBox(
			widget.NewForm(widget.NewFormItem("Curve", cp.modeSelect)),
			container.NewBorder(nil, nil, nil, captureButton, cp.phEntry),
			container.NewGridWithColumns(2, resetButton, reloadButton),
		)),
	)
}

// GetContainer returns the panel.
func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

// SetCallbacks registers the handlers for curve, ROI and error events.
func (cp *ControlPanel) SetCallbacks(onCurveChanged func(string), onROIChanged func(), onError func(string, error)) {
	cp.onCurveChanged = onCurveChanged
	cp.onROIChanged = onROIChanged
	cp.onError = onError
}

// RefreshMode re-reads the available sources and the active one.
func (cp *ControlPanel) RefreshMode() {
	cp.syncing = true
	defer func() { cp.syncing = false }()
	cp.modeSelect.Options = cp.sourceNames()
	cp.modeSelect.SetSelected(string(cp.session.Mode()))
	cp.modeSelect.Refresh()
}

func (cp *ControlPanel) sourceNames() []string {
	sources := cp.session.Calibration().Sources()
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = string(src)
	}
	return names
}

func (cp *ControlPanel) roiText() string {
	size := cp.session.ROISize()
	return fmt.Sprintf("ROI %d×%d px", size, size)
}

func (cp *ControlPanel) roiChanged() {
	cp.roiLabel.SetText(cp.roiText())
	if cp.onROIChanged != nil {
		cp.onROIChanged()
	}
}

func (cp *ControlPanel) togglePause() {
	switch cp.session.Toggle() {
	case core.StatePaused:
		cp.pauseButton.SetText("Resume")
		cp.pauseButton.SetIcon(theme.MediaPlayIcon())
	case core.StateRunning:
		cp.pauseButton.SetText("Pause")
		cp.pauseButton.SetIcon(theme.MediaPauseIcon())
	}
	cp.logger.WithField("state", cp.session.State()).Info("Sampling toggled")
}

func (cp *ControlPanel) selectMode(name string) {
	if cp.syncing {
		return
	}
	active, ok := cp.session.SetMode(calibration.Source(name))
	if !ok {
		cp.RefreshMode()
		cp.notify(fmt.Sprintf("Curve %q needs at least two points, using %s", name, active))
		return
	}
	cp.notify(fmt.Sprintf("Using %s curve", active))
}

func (cp *ControlPanel) capture() {
	text := strings.TrimSpace(cp.phEntry.Text)
	ph, err := strconv.ParseFloat(text, 64)
	if err != nil {
		cp.fail("Invalid pH", fmt.Errorf("%q is not a number", text))
		return
	}

	p, err := cp.session.Capture(ph)
	var verr *calibration.ValidationError
	switch {
	case errors.As(err, &verr):
		cp.fail("Capture Rejected", err)
		return
	case err != nil:
		cp.fail("Calibration Not Saved", err)
	}

	cp.phEntry.SetText("")
	cp.RefreshMode()
	cp.notify(fmt.Sprintf("Captured hue %.1f° at pH %.2f", p.Hue, p.PH))
}

func (cp *ControlPanel) confirmReset() {
	dialog.ShowConfirm("Reset Calibration", "Remove all manual calibration points?", func(ok bool) {
		if !ok {
			return
		}
		if err := cp.session.ResetManual(); err != nil {
			cp.fail("Calibration Not Saved", err)
		}
		cp.RefreshMode()
		cp.notify("Manual calibration cleared")
	}, cp.window)
}

func (cp *ControlPanel) reload() {
	curve, active := cp.session.Reload()
	cp.RefreshMode()
	cp.notify(fmt.Sprintf("Reloaded %d points, using %s", len(curve), active))
}

func (cp *ControlPanel) notify(message string) {
	if cp.onCurveChanged != nil {
		cp.onCurveChanged(message)
	}
}

func (cp *ControlPanel) fail(title string, err error) {
	if cp.onError != nil {
		cp.onError(title, err)
		return
	}
	cp.logger.WithError(err).Error(title)
}
