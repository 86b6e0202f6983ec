package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/dop251/goja"
	"github.com/shopspring/decimal"
)

// EvalFailedReply is shown when an input with digits cannot be evaluated
const EvalFailedReply = "Couldn't evaluate expression."

// MaxExpressionLen caps the input handed to the runtime, in bytes
const MaxExpressionLen = 256

var (
	// ErrNotEvaluable is returned for expressions without a printable result
	ErrNotEvaluable = errors.New("expression has no printable result")
	// ErrNotArithmetic is returned for input that is too long or contains
	// anything besides numbers, operators and parentheses
	ErrNotArithmetic = errors.New("not an arithmetic expression")
)

const arithmeticSymbols = ".+-*/%()<>=!&|^~eE"

// isArithmetic accepts only number literals, operators, parentheses and
// whitespace, up to MaxExpressionLen bytes.
func isArithmetic(expr string) bool {
	if len(expr) > MaxExpressionLen {
		return false
	}
	return !strings.ContainsFunc(expr, func(r rune) bool {
		return !('0' <= r && r <= '9') && !unicode.IsSpace(r) && !strings.ContainsRune(arithmeticSymbols, r)
	})
}

// Evaluator runs short arithmetic expressions in an isolated JavaScript
// runtime. Each call gets a fresh runtime with no host bindings.
type Evaluator struct {
	timeout time.Duration
}

// NewEvaluator creates an evaluator. timeout <= 0 selects 200ms.
func NewEvaluator(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &Evaluator{timeout: timeout}
}

// Eval evaluates expr and formats the result
func (e *Evaluator) Eval(ctx context.Context, expr string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !isArithmetic(expr) {
		return "", ErrNotArithmetic
	}
	return run(ctx, expr)
}

// run evaluates expr in a fresh runtime, interrupting it when ctx ends
func run(ctx context.Context, expr string) (string, error) {
	vm := goja.New()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(expr)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause := interrupted.Unwrap(); cause != nil {
				return "", cause
			}
			return "", context.Canceled
		}
		return "", err
	}
	return formatValue(val)
}

func formatValue(val goja.Value) (string, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", ErrNotEvaluable
	}

	switch v := val.Export().(type) {
	case int64:
		return decimal.NewFromInt(v).String(), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: %v", ErrNotEvaluable, v)
		}
		return decimal.NewFromFloat(v).String(), nil
	case bool, string:
		return fmt.Sprint(v), nil
	default:
		if _, ok := goja.AssertFunction(val); ok {
			return "", ErrNotEvaluable
		}
		return val.String(), nil
	}
}
