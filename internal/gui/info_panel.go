// Reading panel: pH value, pH bar and sample diagnostics
package gui

import (
	"fmt"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"colorimetric-ph/internal/core"
)

// InfoPanel shows the latest reading.
type InfoPanel struct {
	container *fyne.Container

	phText      *canvas.Text
	phBar       *widget.ProgressBar
	hueLabel    *widget.Label
	countLabel  *widget.Label
	modeLabel   *widget.Label
	statsLabel  *widget.Label
	qualityText *widget.Label
}

// NewInfoPanel creates an empty reading panel.
func NewInfoPanel() *InfoPanel {
	ip := &InfoPanel{}

	ip.phText = canvas.NewText("pH --", theme.Color(theme.ColorNameForeground))
	ip.phText.TextSize = 42
	ip.phText.TextStyle = fyne.TextStyle{Bold: true}
	ip.phText.Alignment = fyne.TextAlignCenter

	ip.phBar = widget.NewProgressBar()
	ip.phBar.Min = 0
	ip.phBar.Max = 1
	ip.phBar.TextFormatter = func() string { return "" }

	ip.hueLabel = widget.NewLabel("Hue: --")
	ip.countLabel = widget.NewLabel("Samples: 0")
	ip.modeLabel = widget.NewLabel("Calibration: default")
	ip.statsLabel = widget.NewLabel("")
	ip.qualityText = widget.NewLabel("")
	ip.qualityText.Wrapping = fyne.TextWrapWord

	scale := container.NewGridWithColumns(3,
		widget.NewLabelWithStyle("1", fyne.TextAlignLeading, fyne.TextStyle{}),
		widget.NewLabelWithStyle("7", fyne.TextAlignCenter, fyne.TextStyle{}),
		widget.NewLabelWithStyle("14", fyne.TextAlignTrailing, fyne.TextStyle{}),
	)

	ip.container = container.NewVBox(
		widget.NewCard("Reading", "", container.NewVBox(ip.phText, ip.phBar, scale)),
		widget.NewCard("Diagnostics", "", container.NewVBox(
			ip.hueLabel,
			ip.countLabel,
			ip.modeLabel,
			ip.statsLabel,
			ip.qualityText,
		)),
	)
	return ip
}

// GetContainer returns the panel.
func (ip *InfoPanel) GetContainer() fyne.CanvasObject {
	return ip.container
}

// Update shows r. Must be called on the fyne goroutine.
func (ip *InfoPanel) Update(r core.Result, mode string, stats core.TickSummary) {
	if r.Conclusive() {
		ip.phText.Text = fmt.Sprintf("pH %.2f", r.PH)
		ip.phBar.SetValue(r.MarkerPosition())
		ip.hueLabel.SetText(fmt.Sprintf("Hue: %.1f°", r.MeanHue))
	} else {
		ip.phText.Text = "pH --"
		ip.phBar.SetValue(0)
		ip.hueLabel.SetText("Hue: --")
	}
	ip.phText.Refresh()

	ip.countLabel.SetText(fmt.Sprintf("Samples: %d", r.Count))
	ip.modeLabel.SetText("Calibration: " + mode)
	if stats.Ticks > 0 {
		ip.statsLabel.SetText(fmt.Sprintf("Ticks: %d (%d with pH), %.1f ms avg", stats.Ticks, stats.Conclusive, stats.MeanMillis))
	}

	if len(r.Quality) == 0 {
		ip.qualityText.SetText("")
		return
	}
	names := make([]string, 0, len(r.Quality))
	for name := range r.Quality {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names)+len(r.Issues)+1)
	if r.Grade != "" {
		lines = append(lines, "Quality: "+r.Grade)
	}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %.2f", name, r.Quality[name]))
	}
	lines = append(lines, r.Issues...)
	ip.qualityText.SetText(strings.Join(lines, "\n"))
}
