// Live camera frame source
package io

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"colorimetric-ph/internal/algorithms"
	"colorimetric-ph/internal/core"
)

// Camera keeps the most recent frame from a capture device. It implements
// core.FrameSource; Grab or Stream must be called to advance frames.
type Camera struct {
	mu        sync.RWMutex
	device    int
	capture   *gocv.VideoCapture
	frame     gocv.Mat // BGR, prefiltered
	prefilter algorithms.Prefilter
	logger    logrus.FieldLogger
	frames    int64
}

// OpenCamera opens a capture device by index.
func OpenCamera(device int, prefilter algorithms.Prefilter, logger logrus.FieldLogger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %d is not available", device)
	}
	// Keep only the newest frame so readings track the live scene.
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	log := logger.WithField("device", device)
	log.WithFields(logrus.Fields{
		"width":     capture.Get(gocv.VideoCaptureFrameWidth),
		"height":    capture.Get(gocv.VideoCaptureFrameHeight),
		"prefilter": prefilter.Name,
	}).Info("camera opened")

	return &Camera{
		device:    device,
		capture:   capture,
		frame:     gocv.NewMat(),
		prefilter: prefilter,
		logger:    log,
	}, nil
}

// Grab reads the next frame from the device.
func (c *Camera) Grab() error {
	img := gocv.NewMat()
	defer img.Close()

	if ok := c.capture.Read(&img); !ok || img.Empty() {
		return fmt.Errorf("%w: camera %d returned no frame", core.ErrNoFrame, c.device)
	}
	if img.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("camera %d: unexpected frame type %v", c.device, img.Type())
	}

	filtered, err := c.prefilter.Run(img)
	if err != nil {
		return fmt.Errorf("prefilter %s: %w", c.prefilter.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame.Close()
	c.frame = filtered
	c.frames++
	return nil
}

// Stream grabs frames until ctx is done, calling onFrame after each one.
// Read failures are logged and retried after a short pause.
func (c *Camera) Stream(ctx context.Context, onFrame func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.Grab(); err != nil {
			c.logger.WithError(err).Debug("frame grab failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}
		if onFrame != nil {
			onFrame()
		}
	}
}

// Frames returns how many frames have been grabbed.
func (c *Camera) Frames() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// FrameSize implements core.FrameSource.
func (c *Camera) FrameSize() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame.Empty() {
		return 0, 0
	}
	return c.frame.Cols(), c.frame.Rows()
}

// ReadRegion implements core.FrameSource.
func (c *Camera) ReadRegion(r image.Rectangle) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame.Empty() {
		return nil, core.ErrNoFrame
	}
	return regionRGBA(c.frame, r)
}

// Snapshot returns the current frame for display.
func (c *Camera) Snapshot() (image.Image, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame.Empty() {
		return nil, core.ErrNoFrame
	}
	return c.frame.ToImage()
}

// Close releases the device and the held frame.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame.Close()
	c.logger.Info("camera closed")
	return c.capture.Close()
}

// regionRGBA copies r out of a BGR Mat as tightly packed RGBA.
func regionRGBA(frame gocv.Mat, r image.Rectangle) ([]byte, error) {
	r = r.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if r.Empty() {
		return nil, fmt.Errorf("region outside %dx%d frame", frame.Cols(), frame.Rows())
	}

	region := frame.Region(r)
	defer region.Close()

	rgba := gocv.NewMat()
	defer rgba.Close()
	if err := gocv.CvtColor(region, &rgba, gocv.ColorBGRToRGBA); err != nil {
		return nil, fmt.Errorf("convert region: %w", err)
	}
	return rgba.ToBytes(), nil
}
