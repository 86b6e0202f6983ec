package ocr

import (
	"context"
	"image"
	"strings"
	"time"
)

// Extraction is the outcome of one image -> lines run.
type Extraction struct {
	Engine   string
	Strategy string
	Dialect  Dialect
	Lines    []string
	Raw      any
	Attempts []Attempt
	Duration time.Duration
}

// OK reports whether an engine call succeeded. Lines may still be empty.
func (x Extraction) OK() bool { return x.Strategy != StrategyFailedAll }

// Text joins the lines with newlines.
func (x Extraction) Text() string { return strings.Join(x.Lines, "\n") }

// Errors returns the failures of the attempts that ran, in order.
func (x Extraction) Errors() []error {
	return Probe{Attempts: x.Attempts}.Errors()
}

// Extractor runs preprocessing, probing and normalization.
type Extractor struct {
	engine       Engine
	prober       *Prober
	preprocessor *Preprocessor
}

// NewExtractor wires an engine and prober. preprocessor may be nil.
func NewExtractor(engine Engine, prober *Prober, preprocessor *Preprocessor) *Extractor {
	return &Extractor{
		engine:       engine,
		prober:       prober,
		preprocessor: preprocessor,
	}
}

// EngineName returns the configured engine's name, or "" if none.
func (x *Extractor) EngineName() string {
	if x.engine == nil {
		return ""
	}
	return x.engine.Name()
}

// Extract recognizes text in img.
func (x *Extractor) Extract(ctx context.Context, img image.Image) Extraction {
	start := time.Now()

	if x.preprocessor != nil && img != nil {
		img = x.preprocessor.Process(img)
	}

	probe := x.prober.Run(ctx, x.engine, ImageInput(img))
	res := Extraction{
		Engine:   x.EngineName(),
		Strategy: probe.Strategy,
		Raw:      probe.Raw,
		Attempts: probe.Attempts,
		Lines:    []string{},
		Dialect:  DialectNone,
	}
	if probe.OK() {
		res.Lines = Normalize(probe.Raw)
		res.Dialect = DetectDialect(probe.Raw)
	}
	res.Duration = time.Since(start)
	return res
}
