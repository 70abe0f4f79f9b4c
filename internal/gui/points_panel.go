package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"colorimetric-ph/internal/calibration"
	"colorimetric-ph/internal/core"
)

// PointsPanel lists the manual calibration points ordered by pH.
type PointsPanel struct {
	session *core.Session
	points  calibration.Curve
	list    *widget.List
	card    *widget.Card
}

// NewPointsPanel creates the list for session.
func NewPointsPanel(session *core.Session) *PointsPanel {
	pp := &PointsPanel{session: session, points: session.Points()}
	pp.list = widget.NewList(
		func() int { return len(pp.points) },
		func() fyne.CanvasObject { return widget.NewLabel("pH 00.00  hue 000.0°") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			p := pp.points[id]
			item.(*widget.Label).SetText(fmt.Sprintf("pH %5.2f  hue %5.1f°", p.PH, p.Hue))
		},
	)
	pp.card = widget.NewCard("Manual points", pp.subtitle(), pp.list)
	return pp
}

// GetContainer returns the panel.
func (pp *PointsPanel) GetContainer() fyne.CanvasObject {
	return pp.card
}

// Refresh reloads the points from the session.
func (pp *PointsPanel) Refresh() {
	pp.points = pp.session.Points()
	pp.card.SetSubTitle(pp.subtitle())
	pp.list.Refresh()
}

func (pp *PointsPanel) subtitle() string {
	return fmt.Sprintf("%d captured", len(pp.points))
}
