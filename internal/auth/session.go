package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
)

// SessionResponse represents a newly issued session
type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionHandler starts a new chat session and returns its bearer token
func SessionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	sessionID := uuid.New().String()
	token, expires, err := GenerateToken(sessionID)
	if err != nil {
		logging.For("auth").WithError(err).Error("failed to generate token")
		http.Error(w, `{"error":"failed to generate token"}`, http.StatusInternalServerError)
		return
	}

	logging.For("auth").WithField("session", sessionID).Info("session started")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SessionResponse{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expires,
	})
}
