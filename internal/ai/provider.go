package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
	"github.com/facturaIA/ocr-chat-service/internal/models"
)

// DefaultTimeout bounds a single completion call
const DefaultTimeout = 120 * time.Second

// ErrNoProvider is returned by the factory for unknown provider names
var ErrNoProvider = errors.New("no language model configured")

// Provider produces a completion for a prompt
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// StatusError is a non-200 answer from a completion endpoint
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d %s", e.Code, e.Body)
}

// Ask sends prompt to p and always returns displayable text. Failures are
// rendered as an inline error message instead of being returned.
func Ask(ctx context.Context, p Provider, prompt string) string {
	if p == nil {
		return "Error: " + ErrNoProvider.Error()
	}

	log := logging.For("ai").WithField("provider", p.Name())
	start := time.Now()

	reply, err := p.Generate(ctx, prompt)
	if err != nil {
		log.WithError(err).Warn("completion failed")

		var se *StatusError
		if errors.As(err, &se) {
			return se.Error()
		}
		return fmt.Sprintf("%s error: %v", p.Name(), err)
	}

	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("completion ok")
	return reply
}

// NewProvider creates the provider named by providerName. An empty name
// selects cfg.DefaultProvider and an empty model selects the provider's
// configured model.
func NewProvider(cfg models.AIConfig, providerName, modelName string) (Provider, error) {
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	switch strings.ToLower(providerName) {
	case "openai":
		model := modelName
		if model == "" {
			model = cfg.OpenAI.Model
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, model, timeout), nil

	case "gemini":
		model := modelName
		if model == "" {
			model = cfg.Gemini.Model
		}
		return NewGeminiProvider(cfg.Gemini.APIKey, model, timeout), nil

	case "ollama":
		model := modelName
		if model == "" {
			model = cfg.Ollama.Model
		}
		return NewOllamaProvider(cfg.Ollama.BaseURL, model, timeout), nil

	default:
		return nil, fmt.Errorf("%w: unsupported AI provider %q", ErrNoProvider, providerName)
	}
}
