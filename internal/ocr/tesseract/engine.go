// Package tesseract is a local OCR engine backed by Tesseract through
// gosseract. It only exposes the primary entry point.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/facturaIA/ocr-chat-service/internal/ocr"
)

// Engine implements ocr.Engine.
type Engine struct {
	languages []string
}

// New creates a Tesseract engine. An empty language defaults to "eng";
// several languages may be joined with "+".
func New(language string) *Engine {
	if language == "" {
		language = "eng"
	}
	return &Engine{languages: strings.Split(language, "+")}
}

func (e *Engine) Name() string { return "tesseract" }

// OCR recognizes text lines. The result is one page of line entries:
//
//	[][]any{{box, []any{text, confidence}}, ...}
//
// where box is the four corner points of the line and confidence is in
// [0, 1].
func (e *Engine) OCR(ctx context.Context, in ocr.Input) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}

	if in.IsPath() {
		if err := client.SetImage(in.Path); err != nil {
			return nil, fmt.Errorf("failed to set image: %w", err)
		}
	} else {
		data, err := ocr.EncodePNG(in.Image)
		if err != nil {
			return nil, err
		}
		if err := client.SetImageFromBytes(data); err != nil {
			return nil, fmt.Errorf("failed to set image: %w", err)
		}
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	page := make([]any, 0, len(boxes))
	for _, b := range boxes {
		r := b.Box
		corners := [][2]int{
			{r.Min.X, r.Min.Y},
			{r.Max.X, r.Min.Y},
			{r.Max.X, r.Max.Y},
			{r.Min.X, r.Max.Y},
		}
		page = append(page, []any{corners, []any{b.Word, b.Confidence / 100}})
	}
	return []any{page}, nil
}
