package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider calls Google's generative language API (Gemini and Gemma
// models)
type GeminiProvider struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(apiKey, model string, timeout time.Duration) *GeminiProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiProvider{apiKey: apiKey, model: model, timeout: timeout}
}

func (p *GeminiProvider) Name() string { return "Gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("missing API key")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	resp, err := client.GenerativeModel(p.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return sb.String(), nil
}
