package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"

	"github.com/facturaIA/ocr-chat-service/internal/auth"
	"github.com/facturaIA/ocr-chat-service/internal/chat"
	"github.com/facturaIA/ocr-chat-service/internal/db"
	"github.com/facturaIA/ocr-chat-service/internal/models"
	"github.com/facturaIA/ocr-chat-service/internal/ocr"
	"github.com/facturaIA/ocr-chat-service/internal/storage"
)

const Version = "1.0.0"

// Handler handles HTTP requests for the chat and OCR endpoints
type Handler struct {
	config    *models.Config
	extractor *ocr.Extractor
	responder *chat.Responder
	store     chat.Store

	// OCR runs one engine call chain at a time per unit of weight
	ocrSem *semaphore.Weighted

	// Per-IP rate limiters
	limiters *sync.Map
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, extractor *ocr.Extractor, responder *chat.Responder, store chat.Store) *Handler {
	maxOCR := int64(config.OCR.MaxConcurrent)
	if maxOCR <= 0 {
		maxOCR = 1
	}
	return &Handler{
		config:    config,
		extractor: extractor,
		responder: responder,
		store:     store,
		ocrSem:    semaphore.NewWeighted(maxOCR),
		limiters:  &sync.Map{},
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(withRecovery, withLogging)

	// Session
	router.HandleFunc("/api/session", auth.SessionHandler).Methods("POST")
	router.HandleFunc("/api/session/reset", h.ResetSession).Methods("POST")

	// Chat
	router.HandleFunc("/api/messages", h.GetMessages).Methods("GET")
	router.HandleFunc("/api/messages", h.rateLimited(h.SendMessage)).Methods("POST")
	router.HandleFunc("/api/messages/clear", h.ClearMessages).Methods("POST")
	router.HandleFunc("/api/upload/text", h.rateLimited(h.UploadText)).Methods("POST")

	// OCR
	router.HandleFunc("/api/ocr/extract", h.rateLimited(h.ExtractText)).Methods("POST")
	router.HandleFunc("/api/ocr/extractions", h.GetExtractions).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	OCR       ServiceStatus     `json:"ocr"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health reports process and collaborator status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ocrStatus := ServiceStatus{Available: h.extractor != nil && h.extractor.EngineName() != ""}
	if ocrStatus.Available {
		ocrStatus.Name = h.extractor.EngineName()
	} else {
		ocrStatus.Error = "no OCR engine configured"
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		OCR:      ocrStatus,
		Database: optionalStatus(db.Enabled(), "chat history kept in memory"),
		Storage:  optionalStatus(storage.Enabled(), "uploads are not archived"),
		AI: map[string]string{
			"defaultProvider": h.config.AI.DefaultProvider,
			"ocrEngine":       h.config.OCR.Engine,
		},
	}

	status := http.StatusOK
	if !ocrStatus.Available {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	sendJSON(w, status, response)
}

func optionalStatus(enabled bool, disabledNote string) ServiceStatus {
	if enabled {
		return ServiceStatus{Available: true}
	}
	return ServiceStatus{Available: false, Error: disabledNote}
}

// session resolves the caller's chat session from the JWT claims
func (h *Handler) session(r *http.Request) (*chat.Session, error) {
	claims, err := auth.GetClaimsFromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return chat.NewSession(claims.SessionID, h.store), nil
}

func (h *Handler) maxUploadBytes() int64 {
	return int64(h.config.Limits.MaxUploadMB) * 1024 * 1024
}

// sendJSON writes a JSON response
func sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
