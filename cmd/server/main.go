package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/facturaIA/ocr-chat-service/api"
	"github.com/facturaIA/ocr-chat-service/internal/ai"
	"github.com/facturaIA/ocr-chat-service/internal/auth"
	"github.com/facturaIA/ocr-chat-service/internal/chat"
	"github.com/facturaIA/ocr-chat-service/internal/db"
	"github.com/facturaIA/ocr-chat-service/internal/logging"
	"github.com/facturaIA/ocr-chat-service/internal/models"
	"github.com/facturaIA/ocr-chat-service/internal/ocr"
	"github.com/facturaIA/ocr-chat-service/internal/ocr/paddle"
	"github.com/facturaIA/ocr-chat-service/internal/ocr/tesseract"
	"github.com/facturaIA/ocr-chat-service/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	log := logging.For("main")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	config, err := loadConfig(configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	logging.Configure(config.Log.Level, config.Log.Format)

	// Initialize JWT
	if err := auth.Init(config.Auth.Secret, time.Duration(config.Auth.TokenTTLHours)*time.Hour); err != nil {
		log.WithError(err).Fatal("Failed to initialize auth")
	}
	log.Info("JWT authentication initialized")

	// Initialize database connection pool
	var store chat.Store = chat.NewMemoryStore()
	if err := db.Init(); err != nil {
		if !errors.Is(err, db.ErrNotConfigured) {
			log.WithError(err).Warn("Database not available")
		}
		log.Info("Chat history kept in memory (no persistence)")
	} else {
		defer db.Close()
		store = db.NewMessageStore()
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		log.WithError(err).Warn("MinIO storage not available - uploads will not be stored")
	}

	extractor := newExtractor(config.OCR)

	provider, err := ai.NewProvider(config.AI, "", "")
	if err != nil {
		log.WithError(err).Fatal("Failed to create AI provider")
	}
	responder := chat.NewResponder(
		config.Chat.Replies,
		chat.NewEvaluator(time.Duration(config.Chat.EvalTimeoutMillis)*time.Millisecond),
		provider,
	)

	// Create API handler
	handler := api.NewHandler(config, extractor, responder, store)
	router := handler.SetupRoutes()

	// Wrap router with JWT middleware (skips /health and POST /api/session)
	protectedRouter := auth.JWTMiddleware(router)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           protectedRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Starting OCR Chat Service v%s on %s", api.Version, addr)
	log.Infof("OCR Engine: %s", extractor.EngineName())
	log.Infof("Default AI Provider: %s", provider.Name())
	log.Infof("Database: %v", db.Enabled())
	log.Infof("Storage: %v", storage.Enabled())
	log.Infof("Endpoints:")
	log.Infof("  POST http://%s/api/session            - Start a session", addr)
	log.Infof("  GET  http://%s/api/messages           - Conversation (requires JWT)", addr)
	log.Infof("  POST http://%s/api/messages           - Send a message (requires JWT)", addr)
	log.Infof("  POST http://%s/api/messages/clear     - Clear chat (requires JWT)", addr)
	log.Infof("  POST http://%s/api/session/reset      - Clear chat and uploads (requires JWT)", addr)
	log.Infof("  POST http://%s/api/upload/text        - Upload .txt/.csv (requires JWT)", addr)
	log.Infof("  POST http://%s/api/ocr/extract        - OCR an image (requires JWT)", addr)
	log.Infof("  GET  http://%s/api/ocr/extractions    - OCR history (requires JWT)", addr)
	log.Infof("  GET  http://%s/health                 - Health check", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// newExtractor builds the OCR pipeline for the configured engine
func newExtractor(cfg models.OCRConfig) *ocr.Extractor {
	var engine ocr.Engine
	switch strings.ToLower(cfg.Engine) {
	case "tesseract":
		engine = tesseract.New(cfg.Language)
	default:
		engine = paddle.New(paddle.Options{
			BaseURL: cfg.PaddleURL,
			Lang:    cfg.Language,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		})
	}

	var pre *ocr.Preprocessor
	if cfg.Preprocess {
		pre = ocr.NewPreprocessor(cfg.MaxDimension, 0, 0)
	}
	return ocr.NewExtractor(engine, ocr.NewProber(cfg.TempDir), pre)
}

func loadConfig(path string) (*models.Config, error) {
	var config models.Config

	// Read config file
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		logging.For("main").WithField("path", path).Warn("Config file not found, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config)
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// applyEnv overrides config with environment variables if present
func applyEnv(config *models.Config) {
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Log.Format = format
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}

	if engine := os.Getenv("OCR_ENGINE"); engine != "" {
		config.OCR.Engine = engine
	}
	if lang := os.Getenv("OCR_LANGUAGE"); lang != "" {
		config.OCR.Language = lang
	}
	if url := os.Getenv("PADDLE_OCR_URL"); url != "" {
		config.OCR.PaddleURL = url
	}
	if dir := os.Getenv("OCR_TEMP_DIR"); dir != "" {
		config.OCR.TempDir = dir
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.AI.Ollama.BaseURL = baseURL
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.AI.Ollama.Model = model
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}
}
