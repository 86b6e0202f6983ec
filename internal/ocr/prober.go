package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
)

// Strategy names reported in Probe.Strategy.
const (
	StrategyOCR         = "ocr"
	StrategyPredict     = "predict"
	StrategyOCRTempFile = "ocr_tempfile"
	StrategyFailedAll   = "failed_all"
)

// Strategy is one way of invoking an engine. Skip, when set, returns a
// non-nil reason if the strategy cannot apply to this engine/input pair;
// the attempt is then recorded as skipped without calling Invoke.
type Strategy struct {
	Name   string
	Skip   func(engine Engine, in Input) error
	Invoke func(ctx context.Context, engine Engine, in Input) (any, error)
}

// Attempt records the outcome of one strategy.
type Attempt struct {
	Strategy string        `json:"strategy"`
	Skipped  bool          `json:"skipped,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the attempt ran and returned an error.
func (a Attempt) Failed() bool { return !a.Skipped && a.Err != nil }

// Probe is the outcome of Prober.Run. Raw is nil exactly when Strategy is
// StrategyFailedAll.
type Probe struct {
	Raw      any
	Strategy string
	Attempts []Attempt
}

// OK reports whether some strategy produced a result.
func (p Probe) OK() bool { return p.Raw != nil }

// Errors returns the failures of attempts that actually ran, in order.
func (p Probe) Errors() []error {
	var errs []error
	for _, a := range p.Attempts {
		if a.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", a.Strategy, a.Err))
		}
	}
	return errs
}

// Err joins Errors into one error, or returns nil on success.
func (p Probe) Err() error {
	if p.OK() {
		return nil
	}
	errs := p.Errors()
	if len(errs) == 0 {
		return errors.New("no OCR strategy could run")
	}
	return errors.Join(errs...)
}

// Prober runs strategies in order until one yields a result. It never
// returns an error or lets an engine panic escape; failures are collected
// in the returned Probe.
type Prober struct {
	tempDir    string
	strategies []Strategy
	log        *logrus.Entry
}

// NewProber builds a prober with the default strategy order: primary call,
// predict, then primary call on a temporary PNG file. An empty tempDir uses
// the OS default.
func NewProber(tempDir string) *Prober {
	p := &Prober{
		tempDir: tempDir,
		log:     logging.For("ocr.prober"),
	}
	p.strategies = []Strategy{
		{
			Name: StrategyOCR,
			Invoke: func(ctx context.Context, engine Engine, in Input) (any, error) {
				return engine.OCR(ctx, in)
			},
		},
		{
			Name: StrategyPredict,
			Skip: func(engine Engine, _ Input) error {
				if _, ok := engine.(Predictor); !ok {
					return ErrPredictUnsupported
				}
				return nil
			},
			Invoke: func(ctx context.Context, engine Engine, in Input) (any, error) {
				return engine.(Predictor).Predict(ctx, in)
			},
		},
		{
			Name: StrategyOCRTempFile,
			Skip: func(_ Engine, in Input) error {
				if in.IsPath() {
					return errors.New("input is already a path")
				}
				return nil
			},
			Invoke: p.invokeWithTempFile,
		},
	}
	return p
}

// Strategies returns the names of the configured strategies in order.
func (p *Prober) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name
	}
	return names
}

// Run probes engine with in.
func (p *Prober) Run(ctx context.Context, engine Engine, in Input) Probe {
	probe := Probe{Strategy: StrategyFailedAll}

	if engine == nil {
		probe.Attempts = append(probe.Attempts, Attempt{Strategy: StrategyOCR, Err: errors.New("no OCR engine configured")})
		return probe
	}
	if in.Image == nil && !in.IsPath() {
		probe.Attempts = append(probe.Attempts, Attempt{Strategy: StrategyOCR, Err: ErrNoInput})
		return probe
	}

	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			probe.Attempts = append(probe.Attempts, Attempt{Strategy: s.Name, Err: err})
			break
		}
		if s.Skip != nil {
			if reason := s.Skip(engine, in); reason != nil {
				p.log.WithFields(logrus.Fields{"engine": engine.Name(), "strategy": s.Name}).
					Debugf("strategy skipped: %v", reason)
				probe.Attempts = append(probe.Attempts, Attempt{Strategy: s.Name, Skipped: true, Err: reason})
				continue
			}
		}

		start := time.Now()
		raw, err := safeInvoke(ctx, s, engine, in)
		attempt := Attempt{Strategy: s.Name, Err: err, Duration: time.Since(start)}
		probe.Attempts = append(probe.Attempts, attempt)

		if err != nil {
			p.log.WithFields(logrus.Fields{
				"engine":   engine.Name(),
				"strategy": s.Name,
			}).WithError(err).Warn("OCR strategy failed, trying next")
			continue
		}

		probe.Raw = raw
		probe.Strategy = s.Name
		p.log.WithFields(logrus.Fields{
			"engine":   engine.Name(),
			"strategy": s.Name,
			"duration": attempt.Duration,
		}).Info("OCR strategy succeeded")
		return probe
	}

	p.log.WithField("engine", engine.Name()).Error("all OCR strategies failed")
	return probe
}

// safeInvoke calls the strategy and turns panics and empty results into
// errors.
func safeInvoke(ctx context.Context, s Strategy, engine Engine, in Input) (raw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	raw, err = s.Invoke(ctx, engine, in)
	if err == nil && raw == nil {
		err = ErrEmptyResult
	}
	return raw, err
}

// invokeWithTempFile writes the in-memory image to a temporary PNG and calls
// the primary entry point with its path. The file is removed afterwards
// whatever the outcome; a failed removal is only logged.
func (p *Prober) invokeWithTempFile(ctx context.Context, engine Engine, in Input) (any, error) {
	tmp, err := os.CreateTemp(p.tempDir, "ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.WithField("path", path).WithError(err).Debug("temp file cleanup failed")
		}
	}()

	if err := imaging.Save(in.Image, path); err != nil {
		return nil, fmt.Errorf("write temp image: %w", err)
	}

	return engine.OCR(ctx, PathInput(path))
}
