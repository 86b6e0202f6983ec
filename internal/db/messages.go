package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/facturaIA/ocr-chat-service/internal/models"
)

// seq is assigned on insert, so rows written in the same microsecond keep
// their append order.
const selectMessagesSQL = `
	SELECT id, session_id, role, content, created_at
	FROM chat_messages
	WHERE session_id = $1
	ORDER BY seq
`

// MessageStore keeps chat history in the chat_messages table
type MessageStore struct{}

// NewMessageStore returns a store backed by the global Pool
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	if Pool == nil {
		return nil, ErrNoPool
	}

	rows, err := Pool.Query(ctx, selectMessagesSQL, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var (
			msg models.Message
			id  uuid.UUID
		)
		if err := rows.Scan(&id, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.ID = id.String()
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (s *MessageStore) Append(ctx context.Context, sessionID string, msg models.Message) (models.Message, error) {
	if Pool == nil {
		return msg, ErrNoPool
	}

	id := uuid.New()
	if msg.ID != "" {
		if parsed, err := uuid.Parse(msg.ID); err == nil {
			id = parsed
		}
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := Pool.Exec(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, sessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return msg, err
	}

	msg.ID = id.String()
	msg.SessionID = sessionID
	return msg, nil
}

func (s *MessageStore) Clear(ctx context.Context, sessionID string) error {
	if Pool == nil {
		return ErrNoPool
	}
	_, err := Pool.Exec(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID)
	return err
}
