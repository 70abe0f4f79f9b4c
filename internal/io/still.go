// Still image loading for offline readings
package io

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"colorimetric-ph/internal/algorithms"
	"colorimetric-ph/internal/core"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

// NewImageLoader creates a loader logging through logger.
func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage reads a color image as a BGR Mat. The caller closes it.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !IsSupportedImageFormat(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")
	return mat, nil
}

// LoadFrame reads an image, applies prefilter and wraps it as a frame source.
func (il *ImageLoader) LoadFrame(path string, prefilter algorithms.Prefilter) (*core.ImageFrame, error) {
	mat, err := il.LoadImage(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	filtered, err := prefilter.Run(mat)
	if err != nil {
		return nil, fmt.Errorf("prefilter %s: %w", prefilter.Name, err)
	}
	defer filtered.Close()

	img, err := filtered.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return core.NewImageFrameFrom(img, path)
}

// IsSupportedImageFormat reports whether path has an image extension the loader reads.
func IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// GetSupportedFormats returns the readable file extensions.
func GetSupportedFormats() []string {
	return append([]string(nil), supportedFormats...)
}
