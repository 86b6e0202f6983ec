package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor enhances an image before recognition:
// resize (if too large) -> grayscale -> contrast -> sharpen.
type Preprocessor struct {
	maxDimension int
	contrast     float64
	sharpen      float64
}

// NewPreprocessor creates a preprocessor. Non-positive values fall back to
// 2000px, +20% contrast and a 1.0 sharpen sigma.
func NewPreprocessor(maxDimension int, contrast, sharpen float64) *Preprocessor {
	if maxDimension <= 0 {
		maxDimension = 2000
	}
	if contrast <= 0 {
		contrast = 20
	}
	if sharpen <= 0 {
		sharpen = 1.0
	}
	return &Preprocessor{
		maxDimension: maxDimension,
		contrast:     contrast,
		sharpen:      sharpen,
	}
}

// Process returns the enhanced copy of img; img itself is not modified.
func (p *Preprocessor) Process(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)

	// Keep aspect ratio, only shrink.
	b := out.Bounds()
	if b.Dx() > p.maxDimension || b.Dy() > p.maxDimension {
		out = imaging.Fit(out, p.maxDimension, p.maxDimension, imaging.Lanczos)
	}

	out = imaging.Grayscale(out)
	out = imaging.AdjustContrast(out, p.contrast)
	out = imaging.Sharpen(out, p.sharpen)
	return out
}
