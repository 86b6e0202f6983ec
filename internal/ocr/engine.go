// Package ocr shields callers from unstable OCR engine interfaces. It probes
// an engine through several invocation strategies and flattens whatever the
// engine returns into ordered text lines.
package ocr

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrEmptyResult is recorded when an engine call returns neither a
	// result nor an error.
	ErrEmptyResult = errors.New("engine returned no result")

	// ErrPredictUnsupported marks the predict strategy as skipped for
	// engines that do not implement Predictor.
	ErrPredictUnsupported = errors.New("engine has no predict entry point")

	// ErrNoInput is returned for an Input carrying neither image nor path.
	ErrNoInput = errors.New("ocr input has no image or path")
)

// Input is the image handed to an engine: either an in-memory bitmap or a
// path to an image file on disk.
type Input struct {
	Image image.Image
	Path  string
}

// ImageInput wraps an in-memory bitmap.
func ImageInput(img image.Image) Input { return Input{Image: img} }

// PathInput wraps an image file path.
func PathInput(path string) Input { return Input{Path: path} }

// IsPath reports whether the input already refers to a file.
func (in Input) IsPath() bool { return in.Path != "" }

// Engine is the primary recognition entry point. The returned value is
// loosely typed on purpose; its shape varies between engine versions and is
// interpreted by Normalize.
type Engine interface {
	Name() string
	OCR(ctx context.Context, in Input) (any, error)
}

// Predictor is the optional alternate entry point some engine versions
// expose instead of, or next to, OCR.
type Predictor interface {
	Predict(ctx context.Context, in Input) (any, error)
}
