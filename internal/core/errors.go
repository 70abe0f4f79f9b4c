package core

import "errors"

var (
	// ErrNoFrame means the frame source had no pixels to give.
	ErrNoFrame = errors.New("no frame available")

	// ErrInsufficientSample means the region did not hold enough colored pixels
	// for a defined hue.
	ErrInsufficientSample = errors.New("insufficient sample")
)
