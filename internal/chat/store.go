package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facturaIA/ocr-chat-service/internal/models"
)

// Store keeps each session's ordered message log
type Store interface {
	Messages(ctx context.Context, sessionID string) ([]models.Message, error)
	Append(ctx context.Context, sessionID string, msg models.Message) (models.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.Message
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]models.Message)}
}

func (s *MemoryStore) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg models.Message) (models.Message, error) {
	msg = stamp(sessionID, msg)

	s.mu.Lock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	s.mu.Unlock()
	return msg, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// stamp fills the ID, session and timestamp of a new message
func stamp(sessionID string, msg models.Message) models.Message {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.SessionID = sessionID
	return msg
}
