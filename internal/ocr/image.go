package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// imageExtensions lists the upload extensions accepted for OCR.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsSupportedImage reports whether filename has an accepted image extension
// (matched case-insensitively).
func IsSupportedImage(filename string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// DecodeRGB decodes a jpg/png stream, applies EXIF orientation and flattens
// any transparency onto white, leaving an opaque RGB bitmap.
func DecodeRGB(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0), nil
}

// EncodePNG serializes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
