// ROI (Region of Interest) sizing and placement
package core

import "image"

// ROI side length limits, in pixels.
const (
	MinROISize     = 24
	MaxROISize     = 256
	DefaultROISize = 64
	ROIStep        = 16
)

// ClampROISize limits size to [MinROISize, MaxROISize].
func ClampROISize(size int) int {
	if size < MinROISize {
		return MinROISize
	}
	if size > MaxROISize {
		return MaxROISize
	}
	return size
}

// CenteredROI returns the square region of side size centered in a w x h frame.
// The square is clipped at the right and bottom edges when the frame is smaller
// than the region; a frame with no pixels yields an empty rectangle.
func CenteredROI(size, w, h int) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	size = ClampROISize(size)
	half := size / 2

	x0 := max(0, w/2-half)
	y0 := max(0, h/2-half)
	rw := min(size, w-x0)
	rh := min(size, h-y0)
	if rw <= 0 || rh <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(x0, y0, x0+rw, y0+rh)
}
