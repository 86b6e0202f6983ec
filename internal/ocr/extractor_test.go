package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestDecodeRGBFlattensAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	// (1,0) stays fully transparent.

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	img, err := DecodeRGB(&buf)
	if err != nil {
		t.Fatalf("DecodeRGB() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("unexpected bounds %v", b)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("opaque pixel changed: %+v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("transparent pixel should be white, got %+v", got)
	}
}

func TestDecodeRGBRejectsGarbage(t *testing.T) {
	if _, err := DecodeRGB(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestIsSupportedImage(t *testing.T) {
	for name, want := range map[string]bool{
		"scan.png":   true,
		"photo.JPG":  true,
		"photo.jpeg": true,
		"notes.txt":  false,
		"anim.gif":   false,
		"noext":      false,
	} {
		if got := IsSupportedImage(name); got != want {
			t.Errorf("IsSupportedImage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestPreprocessorShrinksAndGrays(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	for x := 0; x < 400; x++ {
		src.Set(x, 50, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	}

	out := NewPreprocessor(200, 0, 0).Process(src)

	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 50 {
		t.Fatalf("expected 200x50 after fit, got %v", b)
	}
	c := out.NRGBAAt(100, 25)
	if c.R != c.G || c.G != c.B {
		t.Fatalf("expected gray pixel, got %+v", c)
	}
	if src.NRGBAAt(0, 50).R != 200 {
		t.Fatalf("source image must not be modified")
	}
}

func TestPreprocessorKeepsSmallImages(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 50, 40))
	out := NewPreprocessor(0, 0, 0).Process(src)
	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 40 {
		t.Fatalf("small image should keep its size, got %v", b)
	}
}

func TestExtractorSuccess(t *testing.T) {
	engine := &fakeEngine{ocrFn: func(Input) (any, error) {
		return []any{map[string]any{"rec_texts": []any{"Hello", " ", "World "}}}, nil
	}}
	x := NewExtractor(engine, NewProber(t.TempDir()), nil)

	res := x.Extract(context.Background(), testImage())

	if !res.OK() {
		t.Fatalf("expected success")
	}
	if res.Engine != "fake" || res.Strategy != StrategyOCR {
		t.Fatalf("unexpected engine/strategy: %s/%s", res.Engine, res.Strategy)
	}
	if res.Dialect != DialectBlockRecords {
		t.Fatalf("dialect = %s", res.Dialect)
	}
	if res.Text() != "Hello\nWorld" {
		t.Fatalf("Text() = %q", res.Text())
	}
}

func TestExtractorFailure(t *testing.T) {
	engine := &fakeEngine{ocrFn: func(Input) (any, error) { return nil, errPrimary }}
	x := NewExtractor(engine, NewProber(t.TempDir()), NewPreprocessor(0, 0, 0))

	res := x.Extract(context.Background(), testImage())

	if res.OK() {
		t.Fatalf("expected failure")
	}
	if res.Strategy != StrategyFailedAll || len(res.Lines) != 0 || res.Dialect != DialectNone {
		t.Fatalf("unexpected extraction: %+v", res)
	}
	if len(res.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(res.Attempts))
	}
}
