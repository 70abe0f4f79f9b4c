// Frame sources and a thread-safe still-image frame
package core

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
)

// FrameSource supplies pixels from the current video frame.
type FrameSource interface {
	// FrameSize returns the frame dimensions, or zeros when no frame is ready.
	FrameSize() (w, h int)

	// ReadRegion returns the pixels of r as tightly packed, non-premultiplied RGBA.
	// r is in frame coordinates with the origin at the top-left.
	ReadRegion(r image.Rectangle) ([]byte, error)
}

// FrameMetadata describes the image held by an ImageFrame.
type FrameMetadata struct {
	Width  int
	Height int
	Source string
}

// ImageFrame is a FrameSource over a still image that can be swapped at any time.
type ImageFrame struct {
	mu       sync.RWMutex
	img      image.Image
	hasImage bool
	metadata FrameMetadata
}

// NewImageFrame creates an empty frame.
func NewImageFrame() *ImageFrame {
	return &ImageFrame{}
}

// NewImageFrameFrom creates a frame holding img.
func NewImageFrameFrom(img image.Image, source string) (*ImageFrame, error) {
	f := NewImageFrame()
	if err := f.SetImage(img, source); err != nil {
		return nil, err
	}
	return f, nil
}

// SetImage replaces the current image with validation
func (f *ImageFrame) SetImage(img image.Image, source string) error {
	if img == nil {
		return fmt.Errorf("cannot set nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.img = img
	f.hasImage = true
	f.metadata = FrameMetadata{
		Width:  b.Dx(),
		Height: b.Dy(),
		Source: source,
	}
	return nil
}

// HasImage reports whether an image is loaded.
func (f *ImageFrame) HasImage() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hasImage
}

// Image returns the current image, or nil.
func (f *ImageFrame) Image() image.Image {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.img
}

// Snapshot returns the current image for display.
func (f *ImageFrame) Snapshot() (image.Image, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.hasImage {
		return nil, ErrNoFrame
	}
	return f.img, nil
}

// Metadata returns information about the current image.
func (f *ImageFrame) Metadata() FrameMetadata {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.metadata
}

// FrameSize implements FrameSource.
func (f *ImageFrame) FrameSize() (int, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.metadata.Width, f.metadata.Height
}

// ReadRegion implements FrameSource.
func (f *ImageFrame) ReadRegion(r image.Rectangle) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.hasImage {
		return nil, ErrNoFrame
	}
	b := f.img.Bounds()
	src := r.Add(b.Min).Intersect(b)
	if src.Empty() {
		return nil, fmt.Errorf("region %v outside %dx%d frame", r, b.Dx(), b.Dy())
	}

	dst := image.NewNRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(dst, dst.Bounds(), f.img, src.Min, draw.Src)
	return dst.Pix, nil
}
