package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/facturaIA/ocr-chat-service/internal/models"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("OCR_ENGINE", "")

	path := writeConfig(t, `
port: 9090
ocr:
  engine: tesseract
  language: eng+spa
chat:
  replies:
    - keyword: ping
      reply: pong
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != 9090 || cfg.OCR.Engine != "tesseract" || cfg.OCR.Language != "eng+spa" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Chat.Replies) != 1 || cfg.Chat.Replies[0].Reply != "pong" {
		t.Fatalf("custom replies should replace defaults, got %+v", cfg.Chat.Replies)
	}
	if cfg.AI.TimeoutSeconds != 120 || cfg.AI.Ollama.Model != "gemma3:latest" {
		t.Fatalf("defaults not applied: %+v", cfg.AI)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("PORT", "7000")
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("OCR_ENGINE", "")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != 7000 || cfg.AI.DefaultProvider != "gemini" || cfg.Auth.Secret != secret {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.Chat.Replies) != len(models.DefaultReplies()) {
		t.Fatalf("default replies expected")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("OCR_ENGINE", "")

	if _, err := loadConfig(writeConfig(t, "port: 8080\n")); err == nil {
		t.Fatalf("missing secret should be rejected")
	}

	t.Setenv("JWT_SECRET", secret)
	if _, err := loadConfig(writeConfig(t, "ocr:\n  engine: easyocr\n")); err == nil {
		t.Fatalf("unknown engine should be rejected")
	}
	if _, err := loadConfig(writeConfig(t, "port: [1")); err == nil {
		t.Fatalf("malformed YAML should be rejected")
	}
}

func TestNewExtractorSelectsEngine(t *testing.T) {
	if got := newExtractor(models.OCRConfig{Engine: "paddle"}).EngineName(); got != "paddleocr" {
		t.Fatalf("EngineName() = %q", got)
	}
	if got := newExtractor(models.OCRConfig{Engine: "Tesseract"}).EngineName(); got != "tesseract" {
		t.Fatalf("EngineName() = %q", got)
	}
}
