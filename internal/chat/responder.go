package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/facturaIA/ocr-chat-service/internal/ai"
	"github.com/facturaIA/ocr-chat-service/internal/logging"
	"github.com/facturaIA/ocr-chat-service/internal/models"
)

// Reply sources
const (
	SourceCanned     = "canned"
	SourceArithmetic = "arithmetic"
	SourceLLM        = "llm"
)

// ErrEmptyInput is returned for blank messages
var ErrEmptyInput = errors.New("message is empty")

// Reply is the assistant's answer to one user message
type Reply struct {
	Text   string
	Source string
}

// Responder picks a reply: canned keyword, then arithmetic, then the
// language model.
type Responder struct {
	replies  []models.CannedReply
	eval     *Evaluator
	provider ai.Provider
	now      func() time.Time
}

// NewResponder creates a responder. Keywords are matched lower-cased in the
// given order. provider may be nil, in which case the fallback reply is an
// inline error.
func NewResponder(replies []models.CannedReply, eval *Evaluator, provider ai.Provider) *Responder {
	table := make([]models.CannedReply, 0, len(replies))
	for _, r := range replies {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" {
			continue
		}
		table = append(table, models.CannedReply{Keyword: kw, Reply: r.Reply})
	}
	if eval == nil {
		eval = NewEvaluator(0)
	}
	return &Responder{replies: table, eval: eval, provider: provider, now: time.Now}
}

// Respond answers input. Only blank input is an error; evaluation and
// model failures are rendered into the reply text.
func (r *Responder) Respond(ctx context.Context, input string) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, ErrEmptyInput
	}
	text := strings.ToLower(strings.TrimSpace(input))

	if reply, ok := r.canned(text); ok {
		return Reply{Text: reply, Source: SourceCanned}, nil
	}

	if hasDigit(text) {
		out, err := r.eval.Eval(ctx, input)
		if err != nil {
			logging.For("chat").WithError(err).Debug("expression evaluation failed")
			out = EvalFailedReply
		}
		return Reply{Text: out, Source: SourceArithmetic}, nil
	}

	return Reply{Text: ai.Ask(ctx, r.provider, input), Source: SourceLLM}, nil
}

func (r *Responder) canned(text string) (string, bool) {
	for _, entry := range r.replies {
		if strings.Contains(text, entry.Keyword) {
			return r.render(entry.Reply), true
		}
	}
	return "", false
}

func (r *Responder) render(reply string) string {
	if !strings.Contains(reply, "{") {
		return reply
	}
	now := r.now()
	return strings.NewReplacer(
		"{time}", now.Format("15:04:05"),
		"{date}", now.Format("2006-01-02"),
	).Replace(reply)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
