package models

import (
	"fmt"
	"strings"
)

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	Log    LogConfig    `yaml:"log"`
	OCR    OCRConfig    `yaml:"ocr"`
	AI     AIConfig     `yaml:"ai"`
	Chat   ChatConfig   `yaml:"chat"`
	Limits LimitsConfig `yaml:"limits"`
	Auth   AuthConfig   `yaml:"auth"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Engine         string `yaml:"engine"`          // "paddle" or "tesseract"
	Language       string `yaml:"language"`        // engine language code
	PaddleURL      string `yaml:"paddle_url"`      // PaddleOCR sidecar base URL
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per engine call
	Preprocess     bool   `yaml:"preprocess"`      // grayscale/contrast/sharpen before OCR
	MaxDimension   int    `yaml:"max_dimension"`   // preprocessing resize bound
	TempDir        string `yaml:"temp_dir"`        // temp PNGs for the path fallback
	MaxConcurrent  int    `yaml:"max_concurrent"`  // simultaneous OCR runs
}

// AIConfig represents language-model provider configuration
type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`

	// Default provider
	DefaultProvider string `yaml:"default_provider"` // "ollama", "openai", "gemini"
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// OpenAIConfig for OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`
}

// GeminiConfig for Google Gemini / Gemma
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://127.0.0.1:11434"
	Model   string `yaml:"model"`    // Default: "gemma3:latest"
}

// ChatConfig configures the canned-reply table and evaluation shortcut
type ChatConfig struct {
	Replies           []CannedReply `yaml:"replies"`
	EvalTimeoutMillis int           `yaml:"eval_timeout_ms"`
	PreviewChars      int           `yaml:"preview_chars"`
}

// CannedReply maps a lowercase keyword to a fixed reply. {time} and {date}
// in Reply are rendered when the reply is sent.
type CannedReply struct {
	Keyword string `yaml:"keyword"`
	Reply   string `yaml:"reply"`
}

// LimitsConfig bounds request sizes and rates
type LimitsConfig struct {
	MaxUploadMB       int `yaml:"max_upload_mb"`
	RequestsPerMinute int `yaml:"requests_per_minute"` // per client IP
	Burst             int `yaml:"burst"`
}

// AuthConfig configures session tokens
type AuthConfig struct {
	Secret        string `yaml:"secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// DefaultReplies is the built-in canned-reply table, in match order.
func DefaultReplies() []CannedReply {
	return []CannedReply{
		{Keyword: "hello", Reply: "Hello! How can I assist you?"},
		{Keyword: "hi", Reply: "Hi there! What can I do for you?"},
		{Keyword: "how are you", Reply: "I'm just a program, but I'm doing great!"},
		{Keyword: "your name", Reply: "I'm Gemma 3 Chatbot, a Go OCR chat service!"},
		{Keyword: "time", Reply: "The current time is {time}."},
		{Keyword: "date", Reply: "Today's date is {date}."},
		{Keyword: "bye", Reply: "Goodbye! Have a nice day."},
		{Keyword: "thanks", Reply: "You're welcome!"},
	}
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.OCR.Engine == "" {
		c.OCR.Engine = "paddle"
	}
	if c.OCR.PaddleURL == "" {
		c.OCR.PaddleURL = "http://127.0.0.1:8866"
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = 60
	}
	if c.OCR.MaxDimension <= 0 {
		c.OCR.MaxDimension = 2000
	}
	if c.OCR.MaxConcurrent <= 0 {
		c.OCR.MaxConcurrent = 1
	}

	if c.AI.DefaultProvider == "" {
		c.AI.DefaultProvider = "ollama"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 120
	}
	if c.AI.Ollama.BaseURL == "" {
		c.AI.Ollama.BaseURL = "http://127.0.0.1:11434"
	}
	if c.AI.Ollama.Model == "" {
		c.AI.Ollama.Model = "gemma3:latest"
	}
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = "gpt-4o-mini"
	}
	if c.AI.Gemini.Model == "" {
		c.AI.Gemini.Model = "gemma-3-27b-it"
	}

	if len(c.Chat.Replies) == 0 {
		c.Chat.Replies = DefaultReplies()
	}
	if c.Chat.EvalTimeoutMillis <= 0 {
		c.Chat.EvalTimeoutMillis = 200
	}
	if c.Chat.PreviewChars <= 0 {
		c.Chat.PreviewChars = 500
	}

	if c.Limits.MaxUploadMB <= 0 {
		c.Limits.MaxUploadMB = 10
	}
	if c.Limits.RequestsPerMinute <= 0 {
		c.Limits.RequestsPerMinute = 60
	}
	if c.Limits.Burst <= 0 {
		c.Limits.Burst = 10
	}

	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
}

// Validate checks the configuration after defaults are applied
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch strings.ToLower(c.OCR.Engine) {
	case "paddle", "tesseract":
	default:
		return fmt.Errorf("unsupported OCR engine: %s", c.OCR.Engine)
	}

	switch strings.ToLower(c.AI.DefaultProvider) {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.DefaultProvider)
	}

	for i, r := range c.Chat.Replies {
		if strings.TrimSpace(r.Keyword) == "" {
			return fmt.Errorf("chat.replies[%d]: keyword is required", i)
		}
	}

	if len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 characters (set JWT_SECRET)")
	}
	return nil
}
