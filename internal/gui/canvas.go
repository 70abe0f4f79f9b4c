// Live frame view with the sampling region outlined
package gui

import (
	"image"
	"image/color"
	"image/draw"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

var roiColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// VideoCanvas displays the latest frame with the ROI box drawn on top.
type VideoCanvas struct {
	image *canvas.Image
	card  *widget.Card
}

// NewVideoCanvas creates a canvas showing a gray placeholder until the first frame.
func NewVideoCanvas() *VideoCanvas {
	placeholder := image.NewRGBA(image.Rect(0, 0, 320, 240))
	draw.Draw(placeholder, placeholder.Bounds(), &image.Uniform{C: color.RGBA{R: 40, G: 40, B: 40, A: 255}}, image.Point{}, draw.Src)

	img := canvas.NewImageFromImage(placeholder)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest
	img.SetMinSize(fyne.NewSize(480, 360))

	return &VideoCanvas{
		image: img,
		card:  widget.NewCard("Camera", "Center the liquid inside the box", img),
	}
}

// GetContainer returns the canvas widget.
func (vc *VideoCanvas) GetContainer() fyne.CanvasObject {
	return vc.card
}

// Update shows frame with roi outlined. Must be called on the fyne goroutine.
func (vc *VideoCanvas) Update(frame image.Image, roi image.Rectangle) {
	vc.image.Image = withROI(frame, roi)
	vc.image.Refresh()
}

// withROI copies frame and draws a 2px outline around roi. roi is relative to
// the frame's top-left corner.
func withROI(frame image.Image, roi image.Rectangle) *image.RGBA {
	b := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), frame, b.Min, draw.Src)

	roi = roi.Intersect(out.Bounds())
	if roi.Empty() {
		return out
	}
	const stroke = 2
	edges := []image.Rectangle{
		image.Rect(roi.Min.X, roi.Min.Y, roi.Max.X, roi.Min.Y+stroke),
		image.Rect(roi.Min.X, roi.Max.Y-stroke, roi.Max.X, roi.Max.Y),
		image.Rect(roi.Min.X, roi.Min.Y, roi.Min.X+stroke, roi.Max.Y),
		image.Rect(roi.Max.X-stroke, roi.Min.Y, roi.Max.X, roi.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(out, e.Intersect(roi), &image.Uniform{C: roiColor}, image.Point{}, draw.Src)
	}
	return out
}
